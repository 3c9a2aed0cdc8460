// Package server assembles the HTTP routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "helpinvest/internal/docs" // swagger docs
	"helpinvest/internal/handlers"
	"helpinvest/internal/middleware"
	"helpinvest/internal/services"
)

// Services are the dependencies the router hands to its handlers.
type Services struct {
	Users      services.UserServicer
	Categories services.CategoryServicer
	Ledger     services.LedgerServicer
	Advisor    services.AdvisorServicer
	Snapshots  services.PortfolioSnapshotServicer
	Audit      services.AuditServicer
}

// NewRouter builds the gin engine. An empty pipelineAPIKey leaves the
// pipeline routes answering 503.
func NewRouter(svc Services, pipelineAPIKey string) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	ledgerHandler := handlers.NewLedgerHandler(svc.Ledger, svc.Audit)
	advisorHandler := handlers.NewAdvisorHandler(svc.Advisor)
	snapshotHandler := handlers.NewPortfolioSnapshotHandler(svc.Snapshots)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Pipeline routes
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(pipelineAPIKey))
	pipeline.POST("/snapshots", snapshotHandler.RecordSnapshots)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.DELETE("/profile", authHandler.DeleteAccount)
	protected.GET("/profile/risk", authHandler.GetRiskProfile)
	protected.PUT("/profile/risk", authHandler.UpdateRiskProfile)

	protected.GET("/categories", categoryHandler.ListCategories)

	ledger := protected.Group("/ledger")
	ledger.POST("/deposits", ledgerHandler.Deposit)
	ledger.POST("/withdrawals", ledgerHandler.Withdraw)
	ledger.GET("/withdrawable", ledgerHandler.GetWithdrawable)
	ledger.GET("/transactions", ledgerHandler.ListTransactions)
	ledger.GET("/transactions/:id", ledgerHandler.GetTransaction)
	ledger.DELETE("/transactions/:id", ledgerHandler.DeleteTransaction)
	ledger.GET("/summary", ledgerHandler.GetSummary)
	ledger.GET("/categories/:name", ledgerHandler.GetCategoryDetail)

	protected.GET("/advisor/analysis", advisorHandler.GetAnalysis)
	protected.GET("/dashboard", advisorHandler.GetDashboard)
	protected.GET("/snapshots", snapshotHandler.GetSnapshots)

	return router
}
