// Package api implements the HTTP service: documents held in a
// [DocStore], mutated through the command envelope format and
// rendered through the shared pipeline runner.
//
// # Endpoints
//
//	POST   /v1/documents                     create (optionally from a script)
//	GET    /v1/documents/{id}                revision and counts
//	DELETE /v1/documents/{id}                drop the document
//	POST   /v1/documents/{id}/commands       apply one command envelope
//	POST   /v1/documents/{id}/undo           step the history back
//	POST   /v1/documents/{id}/redo           step the history forward
//	GET    /v1/documents/{id}/export         render a page (?page=&format=&scale=&refresh=)
//	GET    /v1/documents/{id}/datasets/{name} dataset values and definition
//	GET    /v1/documents/{id}/deps.dot       dependency diagram (?format=)
//	GET    /healthz                          liveness and version
//
// Errors are returned as {"error":{"code","message"}} with the status
// mapped from the engine's error codes: unknown ids are 404, busy
// documents and history conflicts are 409, bad input is 400.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/plotdeck/plotdeck/pkg/pipeline"
)

// Server wires the document store and the render pipeline into an
// HTTP handler.
type Server struct {
	store  *DocStore
	runner *pipeline.Runner
	logger *log.Logger
}

// NewServer creates a server. A nil store holds documents in memory
// with default TTLs; a nil runner renders without a shared cache; a
// nil logger falls back to the default logger.
func NewServer(store *DocStore, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if store == nil {
		store = NewDocStore(0, nil, logger)
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil, logger)
	}
	return &Server{store: store, runner: runner, logger: logger}
}

// Store returns the document store, for janitor wiring and tests.
func (s *Server) Store() *DocStore { return s.store }

// Routes builds the chi router with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleCreate)
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Get("/", s.handleInfo)
			r.Delete("/", s.handleDelete)
			r.Post("/commands", s.handleCommand)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Get("/export", s.handleExport)
			r.Get("/datasets/{name}", s.handleDataset)
			r.Get("/deps.dot", s.handleDeps)
		})
	})
	return r
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
