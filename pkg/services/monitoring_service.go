package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogEntry records a single handled request.
type RequestLogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService keeps an in-memory request log. It is the only shared
// mutable state in the process and guards itself with an RWMutex.
type MonitoringService struct {
	logs []RequestLogEntry
	mu   sync.RWMutex
}

// NewMonitoringService creates a new MonitoringService.
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]RequestLogEntry, 0),
	}
}

// LogRequest appends an entry to the request log.
func (s *MonitoringService) LogRequest(entry RequestLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// LoggingMiddleware records request information for every handled request.
// Monitoring endpoints are excluded from their own log.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/monitoring") {
			return
		}

		s.LogRequest(RequestLogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// DashboardData is the aggregated view served to the monitoring endpoint.
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []RequestLogEntry        `json:"recentErrors"`
}

// GetDashboardData aggregates the request log over the trailing periodHours.
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]RequestLogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filtered = append(filtered, entry)
		}
	}

	// Hourly request buckets, oldest first.
	hourlyBuckets := make(map[string]int)
	for _, entry := range filtered {
		hourlyBuckets[entry.Timestamp.UTC().Truncate(time.Hour).Format(time.RFC3339)]++
	}
	requestsOverTime := make([]map[string]interface{}, periodHours)
	for i := 0; i < periodHours; i++ {
		bucketTime := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		requestsOverTime[i] = map[string]interface{}{
			"time":     bucketTime.Format("15:00"),
			"requests": hourlyBuckets[bucketTime.Format(time.RFC3339)],
		}
	}

	endpoints := make(map[string]int)
	for _, entry := range filtered {
		endpoints[entry.Path]++
	}

	statusClasses := map[string]int{
		"2xx Success":      0,
		"4xx Client Error": 0,
		"5xx Server Error": 0,
	}
	for _, entry := range filtered {
		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusClasses["2xx Success"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			statusClasses["4xx Client Error"]++
		case entry.StatusCode >= 500:
			statusClasses["5xx Server Error"]++
		}
	}
	statusCodes := make([]map[string]interface{}, 0, len(statusClasses))
	for name, value := range statusClasses {
		statusCodes = append(statusCodes, map[string]interface{}{"name": name, "value": value})
	}

	responseTimeSum := make(map[string]time.Duration)
	responseCount := make(map[string]int)
	for _, entry := range filtered {
		responseTimeSum[entry.Path] += entry.ResponseTime
		responseCount[entry.Path]++
	}
	avgResponseTimes := make([]map[string]interface{}, 0, len(responseTimeSum))
	for path, total := range responseTimeSum {
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{
			"endpoint":     path,
			"responseTime": total.Milliseconds() / int64(responseCount[path]),
		})
	}

	recentErrors := make([]RequestLogEntry, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodes,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
	}
}
