package handlers

import (
	"net/http"

	"market-insight-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// Pagination bounds for the records listing. They page the payload only;
// aggregation always runs over the full filtered set.
const (
	defaultRecordLimit = 100
	maxRecordLimit     = 500
)

// RecordHandler serves the raw dataset views: filtered record listings,
// KPI summaries and the distinct filter options.
type RecordHandler struct {
	dataset   *services.DatasetService
	analytics *services.AnalyticsService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(dataset *services.DatasetService, analytics *services.AnalyticsService) *RecordHandler {
	return &RecordHandler{
		dataset:   dataset,
		analytics: analytics,
	}
}

// ListRecords returns the filtered records with pagination metadata.
// total always reflects the full filtered count, not the returned page.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	filter, err := parseFilterQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, err := parseBoundedIntQuery(c, "limit", defaultRecordLimit, 1, maxRecordLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offset, err := parseBoundedIntQuery(c, "offset", 0, 0, int(^uint(0)>>1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matched := h.analytics.Filter(filter)
	total := len(matched)

	if offset > total {
		offset = total
	}
	page := matched[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"returned": len(page),
		"data":     page,
	})
}

// GetSummary returns the fixed KPI set for the selected filters.
func (h *RecordHandler) GetSummary(c *gin.Context) {
	filter, err := parseFilterQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kpis":            h.analytics.Summarize(filter),
		"filters_applied": filter,
	})
}

// GetFilterOptions returns the distinct values available for each filter
// field, for populating the client's dropdowns.
func (h *RecordHandler) GetFilterOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":    h.dataset.DistinctCategories(),
		"subcategories": h.dataset.DistinctSubcategories(),
		"periods":       h.dataset.DistinctPeriods(),
	})
}
