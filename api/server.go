// Package api serves the feature store over HTTP.
//
// Routes:
//
//	GET  /api/v1/get/item/:entity_value/:category?entity_type=bright_uid|account_id
//	POST /api/v1/get/items
//	POST /api/v1/items
//	POST /api/v1/item
//	GET  /api/v1/health
//	GET  /health
//	GET  /metrics
//
// Every failure is classified by package fault and rendered as
// {"error":{"status_code","detail","error_code","timestamp"}}.
package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/metrics"
)

// Features is the feature service behind the HTTP routes.
type Features interface {
	GetSingleCategory(ctx context.Context, entity feature.EntityRef, category string) (*feature.Record, error)
	GetMultipleCategories(ctx context.Context, entity feature.EntityRef, sel feature.Selection) (*feature.MultiResult, error)
	UpsertCategory(ctx context.Context, entity feature.EntityRef, category string, data feature.Data, computeID *string) (feature.WriteResult, error)
	UpsertCategories(ctx context.Context, entity feature.EntityRef, writes []feature.CategoryWrite, computeID *string) (feature.BatchWriteResult, error)
}

// HealthChecker reports which feature tables are reachable.
type HealthChecker interface {
	Ping(ctx context.Context) ([]string, error)
}

// Options configures the HTTP server.
type Options struct {
	// AppName is reported in the Server header.
	AppName string

	// Production hides the detail of internal errors from callers.
	Production bool

	// WriteSource is the only meta.source accepted on writes.
	// Default: "prediction_service"
	WriteSource string

	// CORSOrigins lists allowed browser origins. Empty disables CORS handling.
	CORSOrigins []string

	// BodyLimit caps request bodies in bytes.
	// Default: 4 MiB
	BodyLimit int

	// HealthTimeout bounds the table check of /health.
	// Default: 3s
	HealthTimeout time.Duration
}

// Server is the HTTP front of the feature service.
type Server struct {
	app      *fiber.App
	features Features
	health   HealthChecker
	logger   *slog.Logger
	opts     Options
	now      func() time.Time
}

// New builds the server and registers every route. health may be nil, in which case
// /health reports the service as healthy without checking DynamoDB.
func New(features Features, health HealthChecker, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WriteSource == "" {
		opts.WriteSource = "prediction_service"
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 4 * 1024 * 1024
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 3 * time.Second
	}

	s := &Server{
		features: features,
		health:   health,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               opts.AppName,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(requestid.New())
	s.app.Use(s.accessLog)
	s.app.Use(recover.New())
	if len(opts.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(opts.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.app.Group("/api/v1")
	v1.Get("/get/item/:entity_value/:category", s.getItem)
	v1.Post("/get/items", s.getItems)
	v1.Post("/items", s.putItems)
	v1.Post("/item", s.putItem)
	v1.Get("/health", s.healthCheck)

	s.app.Get("/health", s.healthCheck)
	s.app.Get("/metrics", s.serveMetrics)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// accessLog logs and counts every request once the handler chain has run.
func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	route := c.Route().Path
	metrics.HTTPRequest(c.Method(), route, status, start)

	level := slog.LevelInfo
	if status >= fiber.StatusInternalServerError {
		level = slog.LevelError
	} else if status >= fiber.StatusBadRequest {
		level = slog.LevelWarn
	}
	s.logger.Log(c.UserContext(), level, "http request",
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"method", c.Method(),
		"path", c.Path(),
		"route", route,
		"status", status,
		"duration", time.Since(start),
	)
	return nil
}
