package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront-catalog/internal/config"
	"storefront-catalog/internal/database"
	custommiddleware "storefront-catalog/internal/middleware"
	"storefront-catalog/internal/repository"
	"storefront-catalog/internal/service"
	"storefront-catalog/internal/storage"
	"storefront-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      database.Service
	redis   *redis.Client
	sweeper *service.ReviewSweeper
	closers []func() error
}

// Deps are the long-lived clients the server is built from. Redis may be
// nil, which disables rate limiting.
type Deps struct {
	DB       database.Service
	Redis    *redis.Client
	Uploader storage.Uploader
	Closers  []func() error
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	if deps.Redis != nil && cfg.RateLimit.Requests > 0 {
		router.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "catalog_rate_limit",
		}, logger))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := deps.DB.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Local uploads are served by this process when their base URL is a path.
	if cfg.Storage.Driver == "local" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		prefix := strings.TrimRight(cfg.Storage.PublicBaseURL, "/") + "/"
		router.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Storage.LocalDir))))
	}

	db := deps.DB.DB()
	productRepo := repository.NewProductRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	userRepo := repository.NewUserRepository(db)

	productService := service.NewProductService(productRepo, reviewRepo, userRepo, deps.Uploader, logger)
	sweeper := service.NewReviewSweeper(reviewRepo, cfg.Reviews.SweepInterval, logger)

	productHandler := transport.NewProductHandler(productService, logger)
	productHandler.RegisterRoutes(router,
		custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		custommiddleware.RequireAdmin(logger),
	)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		db:      deps.DB,
		redis:   deps.Redis,
		sweeper: sweeper,
		closers: deps.Closers,
	}
}

// Sweeper returns the orphan review sweeper; the caller decides where it runs.
func (s *Server) Sweeper() *service.ReviewSweeper {
	return s.sweeper
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
