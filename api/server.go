/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestLogger: Structured request logging (httplog, ECS schema)
  2. RequestID:     Unique ID per request for tracing
  3. CleanPath:     Collapse double slashes
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. Heartbeat:     GET /health for load balancers
  6. CORS:          Cross-origin requests for the review frontend

ROUTE GROUPS:
  /api/batches/*    Upload, review and export
  /api/convert      TXT to CSV conversion
  /api/reset        Database reset (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// Version is reported in every log line.
var Version = "dev"

// DefaultAllowedOrigins are the dev servers of the review frontend.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouterOptions configure NewRouter.
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewLogger returns a JSON logger in the ECS schema used for request logs.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "overtime-engine"),
		slog.String("version", Version),
	)
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = h.Logger
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/batches", func(r chi.Router) {
			r.Get("/", h.ListBatches)
			r.Post("/", h.UploadBatch)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetBatch)
				r.Delete("/", h.DeleteBatch)
				r.Put("/holidays/{date}", h.SetHoliday)
				r.Put("/reports/{employeeId}/{date}/reason", h.SetReason)
				r.Put("/reports/{employeeId}/{date}/selected", h.SetSelected)
				r.Put("/form", h.SetForm)
				r.Get("/pages", h.GetPages)
				r.Get("/export", h.Export)
			})
		})

		r.Post("/convert", h.Convert)
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
