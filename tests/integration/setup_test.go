package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"moneta/internal/anomaly"
	"moneta/internal/categorize"
	"moneta/internal/config"
	"moneta/internal/currency"
	"moneta/internal/handlers"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/recurring"
	"moneta/internal/services"
	"moneta/internal/validator"
)

const (
	testAPIKey      = "test-api-key"
	testPipelineKey = "test-pipeline-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	os.Setenv("API_KEY_HASH", string(hash))
	os.Setenv("PIPELINE_API_KEY", testPipelineKey)
	if _, err := config.Load(); err != nil {
		panic(err)
	}
}

// fixedRateProvider returns the same rate for every request.
type fixedRateProvider struct {
	rate decimal.Decimal
}

func (p *fixedRateProvider) FetchRate(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	return p.rate, nil
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	allModels := []interface{}{
		&models.Account{},
		&models.Transaction{},
		&models.ImportBatch{},
		&models.UserOverride{},
		&models.Budget{},
		&models.Subscription{},
		&models.ExchangeRate{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	engine, err := categorize.NewEngine(categorize.Default(), categorize.DefaultHeuristics())
	if err != nil {
		t.Fatalf("failed to compile rule set: %v", err)
	}
	converter := currency.NewConverter(db, &fixedRateProvider{rate: decimal.NewFromInt(1)}, 24*time.Hour)

	// Services
	accountService := services.NewAccountService(db)
	importService := services.NewImportService(db, engine, converter)
	transactionService := services.NewTransactionService(db, engine, converter)
	budgetService := services.NewBudgetService(db)
	subscriptionService := services.NewSubscriptionService(db, recurring.NewDetector(2, 0.05))
	anomalyService := services.NewAnomalyService(db, anomaly.NewDetector(6, 2.0, anomaly.GranularityMonth))

	// Handlers
	authHandler := handlers.NewAuthHandler()
	accountHandler := handlers.NewAccountHandler(accountService)
	importHandler := handlers.NewImportHandler(importService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	anomalyHandler := handlers.NewAnomalyHandler(anomalyService)
	formatHandler := handlers.NewFormatHandler()

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	v1.POST("/auth/token", authHandler.Token)
	v1.GET("/formats", formatHandler.GetFormats)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(testPipelineKey))
	pipeline.POST("/accounts/:id/rows", importHandler.ImportSyncRows)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

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

	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id/category", transactionHandler.OverrideCategory)
	transactions.DELETE("/:id/category", transactionHandler.ClearOverride)
	transactions.POST("/recategorize", transactionHandler.Recategorize)

	protected.POST("/rules/merchants", transactionHandler.AddMerchantRule)
	protected.GET("/reports/spending", transactionHandler.GetSpendingComparison)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

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

	protected.GET("/anomalies", anomalyHandler.GetAnomalies)

	return &testApp{DB: db, Router: router}
}

// request makes a JSON HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// pipelineRequest makes a request authenticated with the sync pipeline key.
func (app *testApp) pipelineRequest(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testPipelineKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// upload posts a raw CSV payload to an import endpoint.
func (app *testApp) upload(path, payload, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// authToken exchanges the test API key for an access token.
func (app *testApp) authToken(t *testing.T) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/auth/token", fmt.Sprintf(`{"api_key":%q}`, testAPIKey), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("token exchange failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["access_token"].(string)
}

// createAccount creates an account over HTTP and returns its ID.
func (app *testApp) createAccount(t *testing.T, token, name, curr string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"currency":%q}`, name, curr)
	rec := app.request("POST", "/api/v1/accounts", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	return account["id"].(string)
}
