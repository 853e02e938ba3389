package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/domain/index"
	"github.com/docuchat/docuchat/internal/infrastructure/uploads"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/handlers"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/middlewares"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/routes"
)

const apiVersion = "1.0.0"

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, indexer *index.Service, storage *uploads.Storage) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.CORSMiddleware(cfg.CORSOrigins),
		middlewares.LoggingMiddleware(log),
		middlewares.MetricsMiddleware(),
	)

	handlerProvider := handlers.NewProvider(cfg, indexer, storage, log)
	routeProvider := routes.NewRoutes(handlerProvider)
	registerCoreRoutes(engine, cfg, indexer)
	routeProvider.Register(engine)

	return &HttpServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
}

// Engine exposes the underlying router, used by tests.
func (s *HttpServer) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("docuchat HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerCoreRoutes(engine *gin.Engine, cfg *config.Config, indexer *index.Service) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Docuchat RAG API is running",
			"version": apiVersion,
			"endpoints": gin.H{
				"health": "/health",
				"upload": "/upload",
				"chat":   "/chat",
				"query":  "/query",
				"status": "/status",
				"reset":  "/reset",
			},
		})
	})
	healthHandler := func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": cfg.ServiceName,
			"version": apiVersion,
			"indexer": "ready",
		}
		if !indexer.Ready() {
			body["status"] = "degraded"
			body["indexer"] = "not initialized"
			if initErr := indexer.InitError(); initErr != "" {
				body["error"] = initErr
			}
		}
		c.JSON(http.StatusOK, body)
	}
	engine.GET("/health", healthHandler)
	engine.GET("/healthz", healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
