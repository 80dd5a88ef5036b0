package models

// MarketRecord represents one row of the market dataset.
// Records are loaded once at startup and never mutated afterwards.
type MarketRecord struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Period      int     `json:"period"`
	MarketSize  float64 `json:"market_size"`
	AvgPrice    float64 `json:"avg_price"`
	Volume      float64 `json:"volume"`
	GrowthRate  float64 `json:"growth_rate"`
	Note        string  `json:"note"`
}

// RecordFilter holds optional equality constraints applied as a conjunction.
// Zero values ("" / 0) mean "match all" for that field.
// Category and subcategory match case-insensitively.
type RecordFilter struct {
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Period      int    `json:"period,omitempty"`
}

// IsEmpty reports whether the filter constrains nothing.
func (f RecordFilter) IsEmpty() bool {
	return f.Category == "" && f.Subcategory == "" && f.Period == 0
}

// SummaryKPI is a single named summary metric computed over a filtered set.
type SummaryKPI struct {
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

// PeriodAggregate holds per-period aggregates of the filtered set,
// the input series for the forecaster.
type PeriodAggregate struct {
	Period     int     `json:"period"`
	MarketSize float64 `json:"market_size"`
	AvgPrice   float64 `json:"avg_price"`
	Volume     float64 `json:"volume"`
	GrowthRate float64 `json:"growth_rate"`
}

// Forecast method labels.
const (
	MethodLinearTrend      = "linear-trend"
	MethodFlat             = "flat"
	MethodInsufficientData = "insufficient-data"
)

// ForecastPoint is one projected future period with its confidence band.
type ForecastPoint struct {
	Period              int     `json:"period"`
	PredictedValue      float64 `json:"predicted_value"`
	LowerBound          float64 `json:"lower_bound"`
	UpperBound          float64 `json:"upper_bound"`
	PredictedAvgPrice   float64 `json:"predicted_avg_price"`
	PredictedGrowthRate float64 `json:"predicted_growth_rate"`
}

// ForecastResult is the forecaster output. Predictions is empty and Method is
// MethodInsufficientData when no historical periods matched the filter.
type ForecastResult struct {
	Predictions []ForecastPoint `json:"predictions"`
	Confidence  float64         `json:"confidence"`
	Method      string          `json:"method"`
}

// RegressionResult holds a fitted least-squares line.
type RegressionResult struct {
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	RSquared    float64 `json:"r_squared"`
	Description string  `json:"description"`
}

// Visualization hints the chat layer may suggest to the client.
const (
	VisualizationBarChart  = "bar_chart"
	VisualizationLineChart = "line_chart"
	VisualizationPieChart  = "pie_chart"
	VisualizationTable     = "table"
	VisualizationNone      = "none"
)

// ChatAnswer is the provider-backed answer to a free-text question.
type ChatAnswer struct {
	Answer            string  `json:"answer"`
	VisualizationHint string  `json:"visualization_hint"`
	Confidence        float64 `json:"confidence"`
}

// Recommendation is a suggested next exploration step for the dashboard.
type Recommendation struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Action      RecommendationAction `json:"action"`
}

// RecommendationAction describes what the client should do with a recommendation.
type RecommendationAction struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
}
