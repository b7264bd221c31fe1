package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"stockAgent/domain"
)

const (
	weeklyPeriod = 7.0
	yearlyPeriod = 365.25
	day          = 24 * time.Hour
)

var errInsufficientHistory = errors.New("insufficient sales history")

type monthDay struct {
	month time.Month
	day   int
}

// fixed calendar holidays that move retail demand
var defaultHolidays = []monthDay{
	{time.January, 1},
	{time.February, 14},
	{time.December, 24},
	{time.December, 25},
	{time.December, 31},
}

// seasonalModel is y(t) = trend(t) * (1 + weekly(t) + yearly(t) + holiday(t)),
// fitted on the series scaled by its maximum.
type seasonalModel struct {
	start   time.Time // first observed day (UTC midnight)
	last    time.Time // last observed day
	span    float64   // trend time scale in days
	scale   float64   // max of the observed series
	a, b    float64   // trend intercept / slope in scaled units
	beta    []float64 // seasonal + holiday coefficients
	weekly  int
	yearly  int
	window  int
	holiday []monthDay
}

// buildSeries turns sale-day rows into a contiguous daily series from the
// first to the last observed day, zero-filling days without sales.
func buildSeries(rows []domain.DailySales) ([]float64, time.Time) {
	if len(rows) == 0 {
		return nil, time.Time{}
	}

	first := truncateDay(rows[0].Day)
	last := first
	byDay := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		d := truncateDay(r.Day)
		byDay[d] += r.Quantity
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	n := int(last.Sub(first)/day) + 1
	series := make([]float64, n)
	for d, q := range byDay {
		series[int(d.Sub(first)/day)] = q
	}
	return series, first
}

func fitSeasonal(series []float64, start time.Time, cfg Config) (*seasonalModel, error) {
	n := len(series)
	if n < 2 {
		return nil, errInsufficientHistory
	}

	scale := 0.0
	for _, v := range series {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid observation %v", v)
		}
		if v > scale {
			scale = v
		}
	}
	if scale == 0 {
		return nil, fmt.Errorf("series has no demand")
	}

	m := &seasonalModel{
		start:   start,
		last:    start.Add(time.Duration(n-1) * day),
		span:    float64(n - 1),
		scale:   scale,
		weekly:  cfg.WeeklyOrder,
		yearly:  cfg.YearlyOrder,
		window:  cfg.HolidayWindowDays,
		holiday: defaultHolidays,
	}

	ts := make([]float64, n)
	ys := make([]float64, n)
	for i, v := range series {
		ts[i] = float64(i) / m.span
		ys[i] = v / scale
	}

	a, b, err := linearFit(ts, ys)
	if err != nil {
		return nil, fmt.Errorf("fit trend: %w", err)
	}
	m.a, m.b = a, b

	X := make([][]float64, n)
	resid := make([]float64, n)
	for i := range series {
		g := m.trend(i)
		feats := m.features(i)
		for k := range feats {
			feats[k] *= g
		}
		X[i] = feats
		resid[i] = ys[i] - g
	}

	beta, err := ridge(X, resid, cfg.SeasonalityPrior)
	if err != nil {
		return nil, fmt.Errorf("fit seasonality: %w", err)
	}
	m.beta = beta

	return m, nil
}

func (m *seasonalModel) trend(i int) float64 {
	return m.a + m.b*float64(i)/m.span
}

// features returns the seasonal design row for day index i:
// weekly sin/cos pairs, yearly sin/cos pairs, holiday indicator.
func (m *seasonalModel) features(i int) []float64 {
	date := m.start.Add(time.Duration(i) * day)
	abs := float64(date.Unix()) / float64(day/time.Second)

	out := make([]float64, 0, 2*m.weekly+2*m.yearly+1)
	for k := 1; k <= m.weekly; k++ {
		w := 2 * math.Pi * float64(k) * abs / weeklyPeriod
		out = append(out, math.Sin(w), math.Cos(w))
	}
	for k := 1; k <= m.yearly; k++ {
		w := 2 * math.Pi * float64(k) * abs / yearlyPeriod
		out = append(out, math.Sin(w), math.Cos(w))
	}

	h := 0.0
	if m.isHoliday(date) {
		h = 1.0
	}
	return append(out, h)
}

func (m *seasonalModel) isHoliday(date time.Time) bool {
	for off := -m.window; off <= m.window; off++ {
		d := date.AddDate(0, 0, off)
		for _, hd := range m.holiday {
			if d.Month() == hd.month && d.Day() == hd.day {
				return true
			}
		}
	}
	return false
}

func (m *seasonalModel) predictIndex(i int) float64 {
	g := m.trend(i)
	feats := m.features(i)
	s := 0.0
	for k, f := range feats {
		s += m.beta[k] * f
	}
	return g * (1 + s) * m.scale
}

// meanForecast averages predictions over the horizon days following the last
// observed day.
func (m *seasonalModel) meanForecast(horizon int) (float64, error) {
	if horizon <= 0 {
		return 0, fmt.Errorf("invalid horizon %d", horizon)
	}

	n := int(m.span) + 1
	sum := 0.0
	for h := 0; h < horizon; h++ {
		sum += m.predictIndex(n + h)
	}
	mean := sum / float64(horizon)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, fmt.Errorf("non-finite forecast")
	}
	return mean, nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
