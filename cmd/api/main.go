package main

import (
	"fmt"
	"net/http"
	"os"

	"moneta/internal/anomaly"
	"moneta/internal/categorize"
	"moneta/internal/config"
	"moneta/internal/currency"
	"moneta/internal/database"
	"moneta/internal/handlers"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/recurring"
	"moneta/internal/services"
	"moneta/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// @title           Moneta API
// @version         1.0
// @description     Moneta ingests bank statements into a deduplicated ledger and derives categories, budgets, subscriptions, and spending anomalies from it.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Build the categorization engine from the configured rules file, or the
	// built-in defaults when none is set.
	rules := categorize.Default()
	if appConfig.RulesFile != "" {
		rules, err = categorize.LoadFile(appConfig.RulesFile)
		if err != nil {
			return fmt.Errorf("failed to load rules file: %w", err)
		}
	}
	engine, err := categorize.NewEngine(rules, categorize.Heuristics{
		SmallAmount: decimal.NewFromFloat(appConfig.HeuristicSmallAmount),
		LargeAmount: decimal.NewFromFloat(appConfig.HeuristicLargeAmount),
	})
	if err != nil {
		return fmt.Errorf("failed to compile rule set: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	provider := currency.NewHTTPProvider(appConfig.RateProviderURL, appConfig.RateTimeout)
	converter := currency.NewConverter(db, provider, appConfig.RateCacheTTL)

	accountService := services.NewAccountService(db)
	importService := services.NewImportService(db, engine, converter)
	transactionService := services.NewTransactionService(db, engine, converter)
	budgetService := services.NewBudgetService(db)
	subscriptionService := services.NewSubscriptionService(db,
		recurring.NewDetector(appConfig.SubscriptionMinOccurrences, appConfig.SubscriptionAmountTolerance))
	anomalyService := services.NewAnomalyService(db,
		anomaly.NewDetector(appConfig.AnomalyPeriods, appConfig.AnomalyMultiplier, anomaly.GranularityMonth))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler()
	accountHandler := handlers.NewAccountHandler(accountService)
	importHandler := handlers.NewImportHandler(importService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	anomalyHandler := handlers.NewAnomalyHandler(anomalyService)
	formatHandler := handlers.NewFormatHandler()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/token", authHandler.Token)
	v1.GET("/formats", formatHandler.GetFormats)

	// Sync pipeline routes (X-API-Key)
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(appConfig.PipelineAPIKey))
	pipeline.POST("/accounts/:id/rows", importHandler.ImportSyncRows)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.POST("/:id/imports", importHandler.ImportStatement)
	accounts.GET("/:id/imports", importHandler.GetImportBatches)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)
	accounts.GET("/:id/anomalies", anomalyHandler.GetAccountAnomalies)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id/category", transactionHandler.OverrideCategory)
	transactions.DELETE("/:id/category", transactionHandler.ClearOverride)
	transactions.POST("/recategorize", transactionHandler.Recategorize)

	// Rule and report routes
	protected.POST("/rules/merchants", transactionHandler.AddMerchantRule)
	protected.GET("/reports/spending", transactionHandler.GetSpendingComparison)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Subscription routes
	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.GetSubscriptions)
	subscriptions.GET("/detected", subscriptionHandler.GetDetectedCandidates)
	subscriptions.POST("/detected", subscriptionHandler.AcceptCandidate)
	subscriptions.GET("/totals", subscriptionHandler.GetRecurringTotals)
	subscriptions.PUT("/:id", subscriptionHandler.UpdateSubscription)
	subscriptions.DELETE("/:id", subscriptionHandler.DeleteSubscription)
	subscriptions.POST("/:id/pause", subscriptionHandler.PauseSubscription)
	subscriptions.POST("/:id/resume", subscriptionHandler.ResumeSubscription)

	// Anomaly routes
	protected.GET("/anomalies", anomalyHandler.GetAnomalies)

	log.Infof("Starting Moneta backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
