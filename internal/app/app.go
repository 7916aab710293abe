package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/velasier/paperbase/internal/config"
	"github.com/velasier/paperbase/internal/database"
	"github.com/velasier/paperbase/internal/middleware"
	"github.com/velasier/paperbase/internal/modules/ai"
	"github.com/velasier/paperbase/internal/modules/arxiv"
	"github.com/velasier/paperbase/internal/modules/ingest"
	"github.com/velasier/paperbase/internal/pkg/cron"
	"github.com/velasier/paperbase/internal/pkg/jwt"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires configuration, storage, the HTTP router, and the job scheduler.
type App struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	db        *gorm.DB
	router    *gin.Engine
	scheduler *cron.Scheduler
	ingestSvc *ingest.Service
}

// New builds a fully wired App.
func New(cfg *config.AppConfig, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	jwt.SetSecret(cfg.JWTSecret)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	arxivClient := arxiv.NewClient(logger)
	aiClient := ai.NewClient(cfg.AI, logger)
	ingestSvc := ingest.NewService(db, arxivClient, aiClient, cfg.StorageDir, cfg.Fetch.MaxResults, logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		router:    router,
		scheduler: cron.New(logger.Named("cron")),
		ingestSvc: ingestSvc,
	}
	a.registerRoutes(aiClient)
	a.registerJobs()
	return a, nil
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowCredentials = true
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.AllowedOrigins
	} else {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}

// Router exposes the gin engine, mainly for tests.
func (a *App) Router() *gin.Engine { return a.router }

// DB exposes the database handle, mainly for tests.
func (a *App) DB() *gorm.DB { return a.db }

// Run starts the scheduler and serves HTTP until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Port),
		Handler: a.router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.Int("port", a.cfg.Port), zap.String("env", a.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
