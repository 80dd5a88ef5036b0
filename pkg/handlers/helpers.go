package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"market-insight-api/pkg/models"

	"github.com/gin-gonic/gin"
)

// parseFilterQuery extracts the optional filter triple from query parameters.
// Omitted parameters mean "no constraint"; a non-numeric period is rejected.
func parseFilterQuery(c *gin.Context) (models.RecordFilter, error) {
	f := models.RecordFilter{
		Category:    strings.TrimSpace(c.Query("category")),
		Subcategory: strings.TrimSpace(c.Query("subcategory")),
	}

	raw := strings.TrimSpace(c.Query("period"))
	if raw == "" {
		return f, nil
	}

	period, err := strconv.Atoi(raw)
	if err != nil {
		return f, fmt.Errorf("period must be an integer year, got %q", raw)
	}
	f.Period = period
	return f, nil
}

// parseBoundedIntQuery parses an integer query parameter with a default and an
// inclusive range. Out-of-range or non-numeric values are rejected, never
// silently coerced.
func parseBoundedIntQuery(c *gin.Context, name string, defaultValue, min, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}
	return value, nil
}
