package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"market-insight-api/pkg/models"
	"market-insight-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// echoAnswerer is a deterministic provider stub for handler tests.
type echoAnswerer struct {
	err error
}

func (e *echoAnswerer) AnswerQuestion(_ context.Context, question, _ string) (models.ChatAnswer, error) {
	if e.err != nil {
		return models.ChatAnswer{}, e.err
	}
	return models.ChatAnswer{
		Answer:            "Answer to: " + question,
		VisualizationHint: models.VisualizationTable,
		Confidence:        0.85,
	}, nil
}

func fixtureRecords(n int) []models.MarketRecord {
	records := make([]models.MarketRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.MarketRecord{
			Category:    "Asia",
			Subcategory: fmt.Sprintf("Brand-%02d", i),
			Period:      2019 + i%4,
			MarketSize:  float64(1000 + i),
			AvgPrice:    10,
			Volume:      float64(i),
			GrowthRate:  5,
		})
	}
	return records
}

func setupRouter(records []models.MarketRecord, provider services.QuestionAnswerer) *gin.Engine {
	dataset := services.NewDatasetServiceFromRecords(records)
	analytics := services.NewAnalyticsService(dataset)
	forecast := services.NewForecastService()
	monitoring := services.NewMonitoringService()
	narrative := services.NewNarrativeService(analytics, provider, 5*time.Second)

	recordHandler := NewRecordHandler(dataset, analytics)
	forecastHandler := NewForecastHandler(analytics, forecast, narrative)
	chatHandler := NewChatHandler(narrative)
	monitoringHandler := NewMonitoringHandler(monitoring)

	r := gin.New()
	r.Use(monitoring.LoggingMiddleware())
	r.GET("/", Root)
	r.GET("/healthz", HealthCheck)
	r.GET("/records", recordHandler.ListRecords)
	r.GET("/summary", recordHandler.GetSummary)
	r.GET("/filters", recordHandler.GetFilterOptions)
	r.GET("/forecast", forecastHandler.GetForecast)
	r.POST("/chat", chatHandler.Chat)
	r.GET("/recommendations", chatHandler.GetRecommendations)
	r.GET("/monitoring/logs", monitoringHandler.GetLogs)
	return r
}

func doGET(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	return w
}

func doPOST(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(fixtureRecords(4), nil)

	w := doGET(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListRecordsPagination(t *testing.T) {
	r := setupRouter(fixtureRecords(50), nil)

	w := doGET(r, "/records?limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total    int                   `json:"total"`
		Returned int                   `json:"returned"`
		Data     []models.MarketRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Total, "total reflects the full filtered count, not the page")
	assert.Equal(t, 10, resp.Returned)
	require.Len(t, resp.Data, 10)
	assert.Equal(t, "Brand-00", resp.Data[0].Subcategory, "page order is dataset order")

	// Second page picks up where the first stopped.
	w = doGET(r, "/records?limit=10&offset=10")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Brand-10", resp.Data[0].Subcategory)

	// Offset beyond the end is an empty page, not an error.
	w = doGET(r, "/records?offset=999")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Total)
	assert.Zero(t, resp.Returned)
}

func TestListRecordsRejectsBadParameters(t *testing.T) {
	r := setupRouter(fixtureRecords(5), nil)

	assert.Equal(t, http.StatusBadRequest, doGET(r, "/records?period=twenty").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(r, "/records?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(r, "/records?limit=501").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(r, "/records?offset=-1").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(r, "/records?limit=abc").Code)
}

func TestListRecordsFilters(t *testing.T) {
	records := fixtureRecords(8)
	records[0].Category = "Europe"
	r := setupRouter(records, nil)

	w := doGET(r, "/records?category=Europe")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	// A filter matching nothing is still a 200.
	w = doGET(r, "/records?category=Nowhere")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
}

func TestGetSummary(t *testing.T) {
	r := setupRouter(fixtureRecords(4), nil)

	w := doGET(r, "/summary?category=Asia")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		KPIs []models.SummaryKPI `json:"kpis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.KPIs, 4)
	assert.Equal(t, "Total Market Size", resp.KPIs[0].Label)

	assert.Equal(t, http.StatusBadRequest, doGET(r, "/summary?period=nope").Code)
}

func TestGetFilterOptions(t *testing.T) {
	r := setupRouter(fixtureRecords(4), nil)

	w := doGET(r, "/filters")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Categories    []string `json:"categories"`
		Subcategories []string `json:"subcategories"`
		Periods       []int    `json:"periods"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Asia"}, resp.Categories)
	assert.Len(t, resp.Subcategories, 4)
	assert.Equal(t, []int{2019, 2020, 2021, 2022}, resp.Periods)
}

func TestGetForecast(t *testing.T) {
	r := setupRouter(fixtureRecords(8), nil)

	w := doGET(r, "/forecast?horizon=3")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Predictions []models.ForecastPoint `json:"predictions"`
		Confidence  float64                `json:"confidence"`
		Method      string                 `json:"method"`
		Narrative   string                 `json:"narrative"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MethodLinearTrend, resp.Method)
	assert.Len(t, resp.Predictions, 3)
	assert.NotEmpty(t, resp.Narrative)
}

func TestGetForecastRejectsBadHorizon(t *testing.T) {
	r := setupRouter(fixtureRecords(8), nil)

	assert.Equal(t, http.StatusBadRequest, doGET(r, "/forecast?horizon=0").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(r, "/forecast?horizon=6").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(r, "/forecast?horizon=two").Code)
}

func TestGetForecastEmptyMatchIsNotAnError(t *testing.T) {
	r := setupRouter(fixtureRecords(8), nil)

	w := doGET(r, "/forecast?category=Nowhere")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Predictions []models.ForecastPoint `json:"predictions"`
		Method      string                 `json:"method"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MethodInsufficientData, resp.Method)
	assert.Empty(t, resp.Predictions)
}

func TestChatWithProvider(t *testing.T) {
	r := setupRouter(fixtureRecords(4), &echoAnswerer{})

	w := doPOST(r, "/chat", ChatRequest{Question: "How big is the market?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Answer to: How big is the market?", resp["answer"])
	assert.Equal(t, models.VisualizationTable, resp["visualization_hint"])
	assert.NotEmpty(t, resp["session_id"], "a session id is minted when the client sends none")
}

func TestChatKeepsClientSessionID(t *testing.T) {
	r := setupRouter(fixtureRecords(4), &echoAnswerer{})

	w := doPOST(r, "/chat", ChatRequest{Question: "Q", SessionID: "session-42"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "session-42", resp["session_id"])
}

func TestChatWithoutProviderIs503(t *testing.T) {
	r := setupRouter(fixtureRecords(4), nil)

	w := doPOST(r, "/chat", ChatRequest{Question: "anything"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "not available")
	assert.Equal(t, models.VisualizationNone, resp["visualization_hint"])

	// Analytical endpoints keep working with no provider configured.
	assert.Equal(t, http.StatusOK, doGET(r, "/records").Code)
	assert.Equal(t, http.StatusOK, doGET(r, "/summary").Code)
	assert.Equal(t, http.StatusOK, doGET(r, "/forecast").Code)
}

func TestChatProviderFailureIs502(t *testing.T) {
	r := setupRouter(fixtureRecords(4), &echoAnswerer{err: fmt.Errorf("upstream timeout")})

	w := doPOST(r, "/chat", ChatRequest{Question: "anything"})
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "upstream timeout")
}

func TestChatValidation(t *testing.T) {
	r := setupRouter(fixtureRecords(4), &echoAnswerer{})

	assert.Equal(t, http.StatusBadRequest, doPOST(r, "/chat", ChatRequest{}).Code)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chat", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecommendationsAlways200(t *testing.T) {
	r := setupRouter(fixtureRecords(4), nil)

	w := doGET(r, "/recommendations")
	require.Equal(t, http.StatusOK, w.Code)

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.NotEmpty(t, recs, "fallback list is served without a provider")
}

func TestMonitoringLogs(t *testing.T) {
	r := setupRouter(fixtureRecords(4), nil)

	// Generate some traffic first.
	doGET(r, "/records")
	doGET(r, "/summary")

	w := doGET(r, "/monitoring/logs")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Endpoints map[string]int `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Endpoints["/records"])
	assert.Equal(t, 1, resp.Endpoints["/summary"])
	assert.Zero(t, resp.Endpoints["/monitoring/logs"], "monitoring traffic is excluded from its own log")

	assert.Equal(t, http.StatusBadRequest, doGET(r, "/monitoring/logs?period=0").Code)
}

func TestRoot(t *testing.T) {
	r := setupRouter(fixtureRecords(1), nil)

	w := doGET(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Market Insight")
}
