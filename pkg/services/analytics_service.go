package services

import (
	"math"
	"sort"

	"market-insight-api/pkg/models"
)

// AnalyticsService computes KPI summaries and grouped aggregates over the
// filtered dataset. All computations run over the full filtered set;
// pagination is a transport concern and never reaches this layer.
type AnalyticsService struct {
	dataset *DatasetService
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(dataset *DatasetService) *AnalyticsService {
	return &AnalyticsService{dataset: dataset}
}

// Filter returns the records matching the filter in source order.
func (s *AnalyticsService) Filter(f models.RecordFilter) []models.MarketRecord {
	return s.dataset.Filter(f)
}

// Summarize returns the fixed KPI set for the filter. An empty match yields
// all-zero KPIs rather than an error.
func (s *AnalyticsService) Summarize(f models.RecordFilter) []models.SummaryKPI {
	matched := s.dataset.Filter(f)

	var totalMarketSize, totalVolume, priceSum float64
	for _, r := range matched {
		totalMarketSize += r.MarketSize
		totalVolume += r.Volume
		priceSum += r.AvgPrice
	}

	averagePrice := 0.0
	if len(matched) > 0 {
		averagePrice = priceSum / float64(len(matched))
	}

	return []models.SummaryKPI{
		{
			Label:       "Total Market Size",
			Value:       round2(totalMarketSize),
			Unit:        "USD",
			Description: "Sum of market size in USD for the selected filters.",
		},
		{
			Label:       "Average Price",
			Value:       round2(averagePrice),
			Unit:        "USD",
			Description: "Average unit price across the selection.",
		},
		{
			Label:       "Total Volume",
			Value:       round2(totalVolume),
			Unit:        "million units",
			Description: "Total volume (in millions) in the selected scope.",
		},
		{
			Label:       "CAGR",
			Value:       s.CompoundGrowthRate(matched),
			Unit:        "percent",
			Description: "Compound annual growth rate derived from total market size.",
		},
	}
}

// CompoundGrowthRate computes the compound annual growth rate of the total
// market size between the earliest and latest period in the set:
// ((last/first)^(1/span) - 1) * 100. It reports 0 when fewer than two distinct
// periods exist, the span is non-positive, or the earliest total is not positive.
func (s *AnalyticsService) CompoundGrowthRate(records []models.MarketRecord) float64 {
	aggregates := s.AggregatesByPeriod(records)
	if len(aggregates) < 2 {
		return 0
	}

	first := aggregates[0]
	last := aggregates[len(aggregates)-1]
	span := last.Period - first.Period
	if span <= 0 || first.MarketSize <= 0 {
		return 0
	}

	cagr := math.Pow(last.MarketSize/first.MarketSize, 1/float64(span)) - 1
	return round2(cagr * 100)
}

// AggregatesByPeriod groups records by period, summing market size and volume
// and averaging unit price and growth rate. The result is sorted by period
// ascending and is the forecaster's input series.
func (s *AnalyticsService) AggregatesByPeriod(records []models.MarketRecord) []models.PeriodAggregate {
	byPeriod := make(map[int]*models.PeriodAggregate)
	counts := make(map[int]int)
	for _, r := range records {
		agg, ok := byPeriod[r.Period]
		if !ok {
			agg = &models.PeriodAggregate{Period: r.Period}
			byPeriod[r.Period] = agg
		}
		agg.MarketSize += r.MarketSize
		agg.Volume += r.Volume
		agg.AvgPrice += r.AvgPrice
		agg.GrowthRate += r.GrowthRate
		counts[r.Period]++
	}

	out := make([]models.PeriodAggregate, 0, len(byPeriod))
	for period, agg := range byPeriod {
		n := float64(counts[period])
		agg.AvgPrice /= n
		agg.GrowthRate /= n
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// TotalsByCategory sums market size per category label.
func (s *AnalyticsService) TotalsByCategory(records []models.MarketRecord) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range records {
		totals[r.Category] += r.MarketSize
	}
	return totals
}

// TotalsBySubcategory sums market size per subcategory label.
func (s *AnalyticsService) TotalsBySubcategory(records []models.MarketRecord) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range records {
		totals[r.Subcategory] += r.MarketSize
	}
	return totals
}

// LabelTotal pairs a group label with its aggregate market size.
type LabelTotal struct {
	Label string
	Total float64
}

// TopSubcategories returns up to n subcategories ordered by market size
// descending. Ties break alphabetically so the order is deterministic.
func (s *AnalyticsService) TopSubcategories(records []models.MarketRecord, n int) []LabelTotal {
	totals := s.TotalsBySubcategory(records)
	out := make([]LabelTotal, 0, len(totals))
	for label, total := range totals {
		out = append(out, LabelTotal{Label: label, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// round2 rounds to two decimal places for presentation-stable KPI values.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
