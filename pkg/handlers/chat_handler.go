package handlers

import (
	"errors"
	"net/http"

	"market-insight-api/pkg/models"
	"market-insight-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatRequest is the /chat request body. The filter fields scope the context
// digest handed to the provider.
type ChatRequest struct {
	Question    string `json:"question"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Period      int    `json:"period,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// ChatHandler delegates free-text questions to the external provider.
type ChatHandler struct {
	narrative *services.NarrativeService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(narrative *services.NarrativeService) *ChatHandler {
	return &ChatHandler{narrative: narrative}
}

// Chat answers a natural-language question about the filtered data. Provider
// problems surface as structured error payloads on this endpoint only; the
// rest of the API keeps serving.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	filter := models.RecordFilter{
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Period:      req.Period,
	}

	answer, err := h.narrative.Chat(c.Request.Context(), req.Question, filter)
	if err != nil {
		if errors.Is(err, services.ErrProviderUnconfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":              "AI features are not available. Configure GROQ_API_KEY to enable the assistant.",
				"answer":             "",
				"visualization_hint": models.VisualizationNone,
				"confidence":         0.0,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":              "AI provider call failed: " + err.Error(),
			"answer":             "",
			"visualization_hint": models.VisualizationNone,
			"confidence":         0.0,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":             answer.Answer,
		"visualization_hint": answer.VisualizationHint,
		"confidence":         answer.Confidence,
		"session_id":         req.SessionID,
	})
}

// GetRecommendations suggests exploration steps for the current filters.
// It always answers 200; without a provider the static fallback list is used.
func (h *ChatHandler) GetRecommendations(c *gin.Context) {
	filter, err := parseFilterQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.narrative.Recommendations(c.Request.Context(), filter))
}
