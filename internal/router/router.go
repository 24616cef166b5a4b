package router

import (
	"time"

	"courtpos/internal/config"
	"courtpos/internal/handler"
	"courtpos/internal/middleware"
	"courtpos/internal/repository"
	"courtpos/internal/service"
	"courtpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	registerRepo := repository.NewRegisterRepository(db)
	paymentRepo := repository.NewPaymentSourceRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	registerSvc := service.NewRegisterService(registerRepo, facilityRepo, dispatcher)
	aggregator := service.NewAggregator(registerRepo)
	reconcileSvc := service.NewReconcileService(
		registerRepo, paymentRepo, aggregator, rdb,
		time.Duration(cfg.ReconcileLockTTLMinutes)*time.Minute,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	registerH := handler.NewRegisterHandler(registerSvc)
	reconcileH := handler.NewReconcileHandler(reconcileSvc)
	facilitiesH := handler.NewFacilitiesHandler(facilityRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		register := v1.Group("/register")
		{
			register.POST("/open", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Open)
			register.POST("/close", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Close)
			register.POST("/movement", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.RecordMovement)
			register.GET("/current/:facility_id", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetCurrent)
			register.GET("/:id/report", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Report)
			register.GET("/history", middleware.RequireRole("supervisor", "admin"), registerH.History)
		}

		// Repair pass — administrative, irreversible once committed.
		v1.POST("/reconcile", middleware.RequireRole("admin"), reconcileH.Reconcile)

		v1.GET("/facilities", middleware.RequireRole("cashier", "supervisor", "admin"), facilitiesH.List)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
