package main

import (
	"log"
	"time"

	config "market-insight-api/configs"
	"market-insight-api/pkg/groq"
	"market-insight-api/pkg/handlers"
	"market-insight-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()

	// The dataset is loaded exactly once; everything downstream reads it
	// immutably, so the process is useless without it.
	datasetService, err := services.NewDatasetService(cfg.DataFile)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Loaded %d records from %s", len(datasetService.Records()), cfg.DataFile)

	analyticsService := services.NewAnalyticsService(datasetService)
	forecastService := services.NewForecastService()
	monitoringService := services.NewMonitoringService()

	// The AI provider is an optional enhancement: without an API key the
	// chat endpoint degrades and everything else keeps working.
	var provider services.QuestionAnswerer
	if cfg.GroqAPIKey != "" {
		provider = services.NewGroqAnswerer(groq.NewClient(cfg.GroqEndpoint, cfg.GroqAPIKey, cfg.GroqModel))
		log.Printf("AI provider configured (model: %s)", cfg.GroqModel)
	} else {
		log.Println("GROQ_API_KEY not set, chat assistant disabled")
	}
	narrativeService := services.NewNarrativeService(
		analyticsService,
		provider,
		time.Duration(cfg.AITimeoutSeconds)*time.Second,
	)

	recordHandler := handlers.NewRecordHandler(datasetService, analyticsService)
	forecastHandler := handlers.NewForecastHandler(analyticsService, forecastService, narrativeService)
	chatHandler := handlers.NewChatHandler(narrativeService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	r := gin.Default()
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	r.GET("/", handlers.Root)
	r.GET("/healthz", handlers.HealthCheck)

	r.GET("/records", recordHandler.ListRecords)
	r.GET("/summary", recordHandler.GetSummary)
	r.GET("/filters", recordHandler.GetFilterOptions)
	r.GET("/forecast", forecastHandler.GetForecast)
	r.POST("/chat", chatHandler.Chat)
	r.GET("/recommendations", chatHandler.GetRecommendations)
	r.GET("/monitoring/logs", monitoringHandler.GetLogs)

	log.Printf("Starting Market Insight API server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
