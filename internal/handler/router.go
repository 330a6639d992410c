package handler

import (
	"context"
	"net/http"
	"time"

	"pointledger/internal/auth"
	"pointledger/internal/config"
	"pointledger/internal/infrastructure/database"
	"pointledger/internal/service"
	"pointledger/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the middleware chain and every route.
func SetupRouter(db *gorm.DB, ledger *service.LedgerService, tokens *auth.TokenService, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(ledger)

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(tokens))
	{
		points := api.Group("/points")
		{
			points.GET("/balance", h.GetBalance)
			points.GET("/transactions", h.ListTransactions)
			points.POST("/charge-requests", h.SubmitChargeRequest)
			points.GET("/charge-requests", h.ListChargeRequests)
			points.POST("/withdraw-requests", h.SubmitWithdrawRequest)
			points.GET("/withdraw-requests", h.ListWithdrawRequests)
			points.POST("/spend", h.Spend)
		}

		admin := api.Group("/admin/points")
		admin.Use(RequireRole(auth.RoleAdmin))
		{
			admin.GET("/requests", h.ListPendingRequests)
			admin.GET("/requests/:request_no/transactions", h.RequestTransactions)
			admin.POST("/charge-requests/:id/approve", h.ApproveChargeRequest)
			admin.POST("/charge-requests/:id/reject", h.RejectChargeRequest)
			admin.POST("/withdraw-requests/:id/approve", h.ApproveWithdrawRequest)
			admin.POST("/withdraw-requests/:id/reject", h.RejectWithdrawRequest)
			admin.POST("/users/:id/adjust", h.AdminAdjust)
			admin.POST("/users/:id/earn", h.RecordEarn)
			admin.GET("/users/:id/balance", h.UserBalance)
			admin.GET("/transactions", h.SearchTransactions)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	return r
}
