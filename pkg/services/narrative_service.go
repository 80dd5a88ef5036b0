package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"market-insight-api/pkg/groq"
	"market-insight-api/pkg/models"
)

// ErrProviderUnconfigured is returned when a chat-dependent operation runs
// without an external text-generation provider.
var ErrProviderUnconfigured = errors.New("AI provider is not configured")

// QuestionAnswerer abstracts the external text-generation provider so the
// aggregation/forecasting core carries no compile-time dependency on it.
// Tests substitute a stub.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question, contextDigest string) (models.ChatAnswer, error)
}

// NarrativeService formats engine outputs into natural-language summaries and
// delegates free-form question answering to the provider. Everything except
// the provider call is pure and deterministic; the service keeps working with
// a nil provider, minus the chat enhancement.
type NarrativeService struct {
	analytics *AnalyticsService
	provider  QuestionAnswerer
	timeout   time.Duration
}

// NewNarrativeService creates a new NarrativeService. provider may be nil.
func NewNarrativeService(analytics *AnalyticsService, provider QuestionAnswerer, timeout time.Duration) *NarrativeService {
	return &NarrativeService{
		analytics: analytics,
		provider:  provider,
		timeout:   timeout,
	}
}

// HasProvider reports whether an external provider is wired in.
func (s *NarrativeService) HasProvider() bool {
	return s.provider != nil
}

// Summarize builds a plain-text digest of the filtered set, used as prompt
// context and as the forecast narrative baseline. It always computes over the
// full filtered set, never a page.
func (s *NarrativeService) Summarize(f models.RecordFilter) string {
	records := s.analytics.Filter(f)
	if len(records) == 0 {
		return "No data available for the selected filters."
	}

	kpis := s.analytics.Summarize(f)

	var b strings.Builder
	fmt.Fprintf(&b, "Total records: %d\n", len(records))

	periods := periodsOf(records)
	fmt.Fprintf(&b, "Periods covered: %d-%d\n", periods[0], periods[len(periods)-1])

	for _, kpi := range kpis {
		fmt.Fprintf(&b, "%s: %.2f %s\n", kpi.Label, kpi.Value, kpi.Unit)
	}

	top := s.analytics.TopSubcategories(records, 5)
	b.WriteString("Top subcategories by market size:\n")
	for _, t := range top {
		fmt.Fprintf(&b, "  - %s: %.0f\n", t.Label, t.Total)
	}

	b.WriteString("Market size by category:\n")
	byCategory := s.analytics.TotalsByCategory(records)
	for _, category := range sortedKeys(byCategory) {
		fmt.Fprintf(&b, "  - %s: %.0f\n", category, byCategory[category])
	}

	return b.String()
}

// Chat answers a free-text question about the filtered data via the provider.
func (s *NarrativeService) Chat(ctx context.Context, question string, f models.RecordFilter) (models.ChatAnswer, error) {
	if s.provider == nil {
		return models.ChatAnswer{}, ErrProviderUnconfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.provider.AnswerQuestion(ctx, question, s.Summarize(f))
}

// ForecastNarrative renders a short narrative for a forecast result. With a
// provider configured it asks for a brief insight; any provider failure
// degrades to the deterministic description.
func (s *NarrativeService) ForecastNarrative(ctx context.Context, f models.RecordFilter, result models.ForecastResult) string {
	base := describeForecast(result)
	if s.provider == nil || result.Method == models.MethodInsufficientData {
		return base
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(result.Predictions)
	if err != nil {
		return base
	}

	question := fmt.Sprintf(
		"Based on the context data and these market predictions:\n%s\n\nProvide a brief (2-3 sentence) insight about the predicted market trends.",
		string(payload),
	)
	answer, err := s.provider.AnswerQuestion(ctx, question, s.Summarize(f))
	if err != nil {
		return base
	}
	return answer.Answer
}

// Recommendations suggests next exploration steps. With no provider, or when
// the provider's output cannot be parsed, the static fallback list is returned.
func (s *NarrativeService) Recommendations(ctx context.Context, f models.RecordFilter) []models.Recommendation {
	if s.provider == nil {
		return fallbackRecommendations()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	question := `Generate 3-4 specific, actionable recommendations for exploring this data.
Each recommendation should suggest a particular filter or analysis and explain why it is interesting.
Format the response as a JSON array of objects with: title, description, action (object with type and field).`

	answer, err := s.provider.AnswerQuestion(ctx, question, s.Summarize(f))
	if err != nil {
		return fallbackRecommendations()
	}

	recommendations, err := parseRecommendations(answer.Answer)
	if err != nil || len(recommendations) == 0 {
		return fallbackRecommendations()
	}
	return recommendations
}

// describeForecast is the deterministic narrative used when no provider is
// available or the provider call fails.
func describeForecast(result models.ForecastResult) string {
	switch result.Method {
	case models.MethodInsufficientData:
		return "No historical periods match the selected filters, so no forecast could be produced. Broaden the filters to include at least one period."
	case models.MethodFlat:
		return fmt.Sprintf(
			"Only one historical period matches the selected filters, so the forecast holds the last observed value flat over %d future period(s). Treat it as a low-confidence placeholder.",
			len(result.Predictions),
		)
	default:
		last := result.Predictions[len(result.Predictions)-1]
		return fmt.Sprintf(
			"A linear trend fitted to the historical periods projects a market size of %.0f by %d (range %.0f-%.0f).",
			last.PredictedValue, last.Period, last.LowerBound, last.UpperBound,
		)
	}
}

// parseRecommendations extracts a recommendation list from provider text,
// tolerating markdown code fences around the JSON.
func parseRecommendations(content string) ([]models.Recommendation, error) {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx != -1 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx != -1 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	}

	var recommendations []models.Recommendation
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &recommendations); err != nil {
		return nil, err
	}
	return recommendations, nil
}

func fallbackRecommendations() []models.Recommendation {
	return []models.Recommendation{
		{
			Title:       "Compare Top Subcategories",
			Description: "Analyze market share differences between the leading subcategories.",
			Action:      models.RecommendationAction{Type: "filter", Field: "subcategory"},
		},
		{
			Title:       "Category Performance",
			Description: "Explore how different categories compare in market size and growth.",
			Action:      models.RecommendationAction{Type: "filter", Field: "category"},
		},
		{
			Title:       "Period-over-Period Trends",
			Description: "Examine how the market has evolved over time.",
			Action:      models.RecommendationAction{Type: "analysis", Field: "period"},
		},
	}
}

func periodsOf(records []models.MarketRecord) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, r := range records {
		if !seen[r.Period] {
			seen[r.Period] = true
			out = append(out, r.Period)
		}
	}
	sort.Ints(out)
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroqAnswerer adapts the Groq client to the QuestionAnswerer interface.
type GroqAnswerer struct {
	client *groq.Client
}

// NewGroqAnswerer wraps a configured Groq client.
func NewGroqAnswerer(client *groq.Client) *GroqAnswerer {
	return &GroqAnswerer{client: client}
}

const analystSystemPrompt = `You are an expert data analyst specializing in market analytics.
Your role is to answer questions about market data in a clear, concise manner.
When answering:
1. Use specific numbers from the context when available
2. Suggest relevant visualizations (bar_chart, line_chart, pie_chart, table)
3. Provide actionable insights
4. If data is not available, clearly state that

Available visualization types: bar_chart, line_chart, pie_chart, table, none`

// AnswerQuestion sends the question plus the context digest to the provider
// and extracts a visualization hint from the reply.
func (g *GroqAnswerer) AnswerQuestion(ctx context.Context, question, contextDigest string) (models.ChatAnswer, error) {
	userPrompt := fmt.Sprintf("Context Data:\n%s\n\nUser Question: %s\n\nPlease provide:\n1. A clear answer to the question\n2. A suggested visualization type (one of: bar_chart, line_chart, pie_chart, table, none)\n3. Brief reasoning for the visualization choice", contextDigest, question)

	content, err := g.client.Complete(ctx, analystSystemPrompt, userPrompt, 2000, 0.7)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	return models.ChatAnswer{
		Answer:            content,
		VisualizationHint: extractVisualizationHint(content),
		Confidence:        0.85,
	}, nil
}

// extractVisualizationHint picks the hinted chart type out of provider text,
// defaulting to a table.
func extractVisualizationHint(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, models.VisualizationBarChart) || strings.Contains(lower, "bar"):
		return models.VisualizationBarChart
	case strings.Contains(lower, models.VisualizationLineChart) || strings.Contains(lower, "line"):
		return models.VisualizationLineChart
	case strings.Contains(lower, models.VisualizationPieChart) || strings.Contains(lower, "pie"):
		return models.VisualizationPieChart
	default:
		return models.VisualizationTable
	}
}
