package server

import (
	"context"
	"net/http"
	"time"

	"github.com/billingbridge/usagebridge/internal/billing"
	"github.com/billingbridge/usagebridge/internal/clock"
	"github.com/billingbridge/usagebridge/internal/config"
	"github.com/billingbridge/usagebridge/internal/customfield"
	"github.com/billingbridge/usagebridge/internal/observability"
	obsmiddleware "github.com/billingbridge/usagebridge/internal/observability/logger"
	obstracing "github.com/billingbridge/usagebridge/internal/observability/tracing"
	"github.com/billingbridge/usagebridge/internal/tenantconfig"
	"github.com/billingbridge/usagebridge/internal/usagesync"
	usagedomain "github.com/billingbridge/usagebridge/internal/usagesync/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	clock.Module,
	billing.Module,
	customfield.Module,
	tenantconfig.Module,
	usagesync.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	db       *gorm.DB
	usagesvc usagedomain.Service
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	DB       *gorm.DB
	Usagesvc usagedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		db:       p.DB,
		usagesvc: p.Usagesvc,
	}

	svc.registerHealthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/accounts/:account_id/usage", s.GetAccountUsage)
	api.GET("/subscriptions/:subscription_id/usage", s.GetSubscriptionUsage)
}
