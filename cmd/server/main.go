package main

import (
	"log"
	"net/http"

	config "stories-profit-api/configs"
	"stories-profit-api/pkg/handlers"
	"stories-profit-api/pkg/openai"
	"stories-profit-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()
	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		log.Fatalf("Failed to load tuning constants: %v", err)
	}

	r := gin.Default()

	// Services
	datasetService := services.NewDatasetService(cfg.DataDir)
	aggregationService := services.NewAggregationService()
	recommendationService := services.NewRecommendationService(aggregationService, tuning)
	generatorClient := openai.NewClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if generatorClient.Configured() {
		log.Println("Text generation client ready: generated recommendation descriptions enabled")
	} else {
		log.Println("OPENAI_API_KEY not set: using data-driven descriptions")
	}
	descriptionService := services.NewDescriptionService(generatorClient)
	simulationService := services.NewSimulationService(aggregationService, tuning)
	monitoringService := services.NewMonitoringService()

	// Handlers
	actionsHandler := handlers.NewActionsHandler(datasetService, aggregationService, recommendationService, descriptionService, simulationService)
	productsHandler := handlers.NewProductsHandler(datasetService, aggregationService)
	branchesHandler := handlers.NewBranchesHandler(datasetService)
	monthlyHandler := handlers.NewMonthlyHandler(datasetService)
	kpiHandler := handlers.NewKPIHandler(datasetService)
	adminHandler := handlers.NewAdminHandler(datasetService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// Middleware
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())
	limiter := rate.NewLimiter(rate.Limit(50), 100)
	r.Use(func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	})

	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/api")
	{
		kpi := api.Group("/kpi")
		{
			kpi.GET("/summary", kpiHandler.GetSummary)
		}

		branches := api.Group("/branches")
		{
			branches.GET("", branchesHandler.List)
			branches.GET("/:branch/categories", branchesHandler.GetCategories)
			branches.GET("/:branch/items", branchesHandler.GetItems)
		}

		products := api.Group("/products")
		{
			products.GET("/top", productsHandler.GetTop)
			products.GET("/loss-leaders", productsHandler.GetLossLeaders)
			products.GET("/categories", productsHandler.GetCategories)
			products.GET("/groups", productsHandler.GetGroups)
		}

		monthly := api.Group("/monthly")
		{
			monthly.GET("/trend", monthlyHandler.GetTrend)
			monthly.GET("/yoy", monthlyHandler.GetYoY)
			monthly.GET("/heatmap", monthlyHandler.GetHeatmap)
			monthly.GET("/branches", monthlyHandler.GetBranches)
		}

		actions := api.Group("/actions")
		{
			actions.GET("/recommendations", actionsHandler.GetRecommendations)
			actions.GET("/promote-opportunities", actionsHandler.GetPromoteOpportunities)
			actions.GET("/profit-traps", actionsHandler.GetProfitTraps)
			actions.POST("/simulate", actionsHandler.Simulate)
			actions.POST("/simulate-scenario", actionsHandler.SimulateScenario)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/reload", adminHandler.ReloadDatasets)
		}

		monitoring := api.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	log.Printf("Starting Stories Profit API on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
