package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
	"github.com/mmdba/supmmdba/internal/auth/session"
	"github.com/mmdba/supmmdba/internal/config"
	obsmetrics "github.com/mmdba/supmmdba/internal/observability/metrics"
	"github.com/mmdba/supmmdba/internal/telemetry/broadcast"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	telemetrySvc telemetrydomain.Service
	authsvc      authdomain.Service
	sessions     *session.Manager
	hub          *broadcast.Hub
	metrics      *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	TelemetrySvc telemetrydomain.Service
	Authsvc      authdomain.Service
	Sessions     *session.Manager
	Hub          *broadcast.Hub
	Metrics      *obsmetrics.Metrics
}

func NewServer(p Params) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("server"),
		telemetrySvc: p.TelemetrySvc,
		authsvc:      p.Authsvc,
		sessions:     p.Sessions,
		hub:          p.Hub,
		metrics:      p.Metrics,
	}
}

func NewEngine(cfg config.Config, log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obsmetrics.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return r
}

// RegisterIngestRoutes mounts the machine-to-server telemetry endpoints,
// all gated by the API key.
func (s *Server) RegisterIngestRoutes() {
	machine := s.engine.Group("/api/mmdba", s.APIKeyRequired())
	machine.POST("/rotuladora/status", s.PostStatus)
	machine.POST("/rotuladora/alarmes", s.PostAlarm)
	machine.POST("/rotuladora/avisos", s.PostWarning)
	machine.POST("/rotuladora/IOs", s.PostIO)
	machine.POST("/rotuladora/velocidade", s.PostSpeed)
	machine.POST("/rotuladora/contagem", s.PostProduction)
	machine.POST("/rotuladora/dados", s.PostData)
}

// RegisterDashboardRoutes mounts the session-gated query endpoints that
// feed the supervision dashboard.
func (s *Server) RegisterDashboardRoutes() {
	dashboard := s.engine.Group("/api/dashboard", s.AuthRequired())
	dashboard.GET("/rotuladora/velocidade/ultima", s.GetLatestSpeed)
	dashboard.GET("/rotuladora/velocidade/historico", s.GetSpeedHistory)
	dashboard.GET("/rotuladora/producao/historico", s.GetProductionHistory)
	dashboard.GET("/rotuladora/eventos/historico", s.GetEventHistory)
	dashboard.GET("/rotuladora/alarmes/ultimo", s.GetLatestAlarm)
	dashboard.GET("/rotuladora/status/ultimo", s.GetLatestStatus)
}

// RegisterStreamRoutes mounts one live channel per telemetry category.
func (s *Server) RegisterStreamRoutes() {
	s.engine.GET("/statusHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategoryStatus))
	s.engine.GET("/alarmesHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategoryAlarm))
	s.engine.GET("/avisosHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategoryWarning))
	s.engine.GET("/iosHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategoryIO))
	s.engine.GET("/velocidadeHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategorySpeed))
	s.engine.GET("/contagemHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategoryProduction))
	s.engine.GET("/dadosHub", s.AuthRequired(), s.streamHandler(telemetrydomain.CategoryData))
}

// RegisterAuthRoutes mounts login and logout.
func (s *Server) RegisterAuthRoutes() {
	s.engine.POST("/api/auth/login", s.Login)
	s.engine.POST("/api/auth/logout", s.Logout)
}

func RegisterRoutes(s *Server) {
	s.RegisterIngestRoutes()
	s.RegisterDashboardRoutes()
	s.RegisterStreamRoutes()
	s.RegisterAuthRoutes()
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(RunHTTP),
)
