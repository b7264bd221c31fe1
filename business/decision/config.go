package decision

import "time"

type Config struct {
	// days of demand the current stock must cover
	LeadTimeBufferDays  float64
	ForecastHorizonDays int

	BottleneckWindowDays int
	MinDurationSamples   int
	// expected share of anomalous task durations
	AnomalyContamination float64
	// scores above this flag a duration that is also far from the median
	AnomalyScoreThreshold float64
	AnomalyTrees          int
	AnomalySubsample      int
	AnomalySeed           int64

	StuckAfter       time.Duration
	ExpiryWindowDays int
	TopCandidates    int

	Urgency UrgencyPolicy
}

const (
	defaultLeadTimeBufferDays    = 7.0
	defaultForecastHorizonDays   = 7
	defaultBottleneckWindowDays  = 14
	defaultMinDurationSamples    = 10
	defaultAnomalyContamination  = 0.05
	defaultAnomalyScoreThreshold = 0.6
	defaultAnomalyTrees          = 100
	defaultAnomalySubsample      = 256
	defaultAnomalySeed           = 42
	defaultStuckAfter            = 48 * time.Hour
	defaultExpiryWindowDays      = 7
	defaultTopCandidates         = 3
	defaultCriticalCoverDays     = 2.0
)

func DefaultConfig() Config {
	return Config{
		LeadTimeBufferDays:  defaultLeadTimeBufferDays,
		ForecastHorizonDays: defaultForecastHorizonDays,

		BottleneckWindowDays:  defaultBottleneckWindowDays,
		MinDurationSamples:    defaultMinDurationSamples,
		AnomalyContamination:  defaultAnomalyContamination,
		AnomalyScoreThreshold: defaultAnomalyScoreThreshold,
		AnomalyTrees:          defaultAnomalyTrees,
		AnomalySubsample:      defaultAnomalySubsample,
		AnomalySeed:           defaultAnomalySeed,

		StuckAfter:       defaultStuckAfter,
		ExpiryWindowDays: defaultExpiryWindowDays,
		TopCandidates:    defaultTopCandidates,

		Urgency: UrgencyPolicy{CriticalCoverDays: defaultCriticalCoverDays},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LeadTimeBufferDays <= 0 {
		c.LeadTimeBufferDays = d.LeadTimeBufferDays
	}
	if c.ForecastHorizonDays <= 0 {
		c.ForecastHorizonDays = d.ForecastHorizonDays
	}
	if c.BottleneckWindowDays <= 0 {
		c.BottleneckWindowDays = d.BottleneckWindowDays
	}
	if c.MinDurationSamples <= 0 {
		c.MinDurationSamples = d.MinDurationSamples
	}
	if c.AnomalyContamination <= 0 || c.AnomalyContamination >= 0.5 {
		c.AnomalyContamination = d.AnomalyContamination
	}
	if c.AnomalyScoreThreshold <= 0 {
		c.AnomalyScoreThreshold = d.AnomalyScoreThreshold
	}
	if c.AnomalyTrees <= 0 {
		c.AnomalyTrees = d.AnomalyTrees
	}
	if c.AnomalySubsample <= 1 {
		c.AnomalySubsample = d.AnomalySubsample
	}
	if c.StuckAfter <= 0 {
		c.StuckAfter = d.StuckAfter
	}
	if c.ExpiryWindowDays <= 0 {
		c.ExpiryWindowDays = d.ExpiryWindowDays
	}
	if c.TopCandidates <= 0 {
		c.TopCandidates = d.TopCandidates
	}
	if c.Urgency.CriticalCoverDays <= 0 {
		c.Urgency.CriticalCoverDays = d.Urgency.CriticalCoverDays
	}
	return c
}
