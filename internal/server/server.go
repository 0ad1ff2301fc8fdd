package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workspace/internal/auth"
	"workspace/internal/cache"
	"workspace/internal/config"
	"workspace/internal/handler"
	"workspace/internal/logging"
	"workspace/internal/middleware"
	"workspace/internal/migrations"
	"workspace/internal/repository"
	"workspace/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger

	sqlDB  *sql.DB
	closer func() error
}

// Handlers groups everything the router needs.
type Handlers struct {
	Topics *handler.TopicHandler
	Todos  *handler.TodoHandler
	Health *handler.HealthHandler
	Tokens middleware.TokenParser
}

func Init(cfg *config.Config) (*Server, error) {
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.MigrateURL()); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	// Setup GORM
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logging.NewGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	logger.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	wc, closeCache := openCache(cfg, logger)

	// Initialize repositories
	topicRepo := repository.NewTopicRepository(db)
	todoRepo := repository.NewTodoRepository(db)

	// Initialize services
	topicSvc := service.NewTopicService(topicRepo, wc, logger)
	todoTree := service.NewTodoTree(todoRepo, topicRepo, wc, logger)

	engine := NewRouter(cfg.GinMode, logger, Handlers{
		Topics: handler.NewTopicHandler(topicSvc),
		Todos:  handler.NewTodoHandler(todoTree),
		Health: handler.NewHealthHandler(sqlDB),
		Tokens: auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry),
	})

	return &Server{
		Engine: engine,
		DB:     db,
		Config: cfg,
		Logger: logger,
		sqlDB:  sqlDB,
		closer: closeCache,
	}, nil
}

// openCache returns the redis snapshot cache, or a no-op cache when redis is
// not configured or unreachable.
func openCache(cfg *config.Config, logger *slog.Logger) (cache.WorkspaceCache, func() error) {
	noop := func() error { return nil }
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, workspace cache disabled")
		return cache.Noop{}, noop
	}

	rc, err := cache.NewRedisWorkspaceCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		logger.Warn("workspace cache disabled", "error", err)
		return cache.Noop{}, noop
	}
	logger.Info("workspace cache enabled", "ttl", cfg.CacheTTL)
	return rc, rc.Close
}

// NewRouter builds the gin engine with every route of the Workspace API.
func NewRouter(mode string, logger *slog.Logger, h Handlers) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger))

	// Public routes
	r.GET("/health", h.Health.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(h.Tokens))
	{
		// Topic routes
		authorized.GET("/topics", h.Topics.List)
		authorized.POST("/topics", h.Topics.Create)
		authorized.PUT("/topics/:uuid", h.Topics.Rename)

		// Todo routes
		authorized.GET("/todos", h.Todos.List)
		authorized.POST("/todos", h.Todos.Create)
		authorized.GET("/todos/:id", h.Todos.GetByID)
		authorized.PUT("/todos/:id", h.Todos.Update)
		authorized.DELETE("/todos/:id", h.Todos.Delete)
		authorized.PATCH("/todos/:id/reparent", h.Todos.Reparent)
	}
	return r
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("server running", "port", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("failed to listen: %w", err)
	case <-quit:
	}
	s.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Close()
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.Close()
	s.Logger.Info("server exited properly")
	return nil
}

// Close releases the cache and the database handle.
func (s *Server) Close() {
	if s.closer != nil {
		if err := s.closer(); err != nil {
			s.Logger.Warn("closing workspace cache", "error", err)
		}
	}
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			s.Logger.Warn("closing database", "error", err)
		}
	}
}
