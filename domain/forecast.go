package domain

type ForecastStrategy string

const (
	ForecastSeasonal      ForecastStrategy = "seasonal_model"
	ForecastSimpleAverage ForecastStrategy = "simple_average"
)

// DemandForecast is a predicted average daily demand tagged with the strategy that produced it.
type DemandForecast struct {
	Value    float64          `json:"value"`
	Strategy ForecastStrategy `json:"strategy"`
}
