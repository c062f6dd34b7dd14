// Package server exposes lockfile analyses over HTTP.
//
// Every upload produces an independent analysis stored under its own ID;
// later requests address it by that ID. Nothing is shared between uploads,
// so overlapping requests never see each other's graphs.
//
// # Routes
//
//	POST   /api/analyses                       upload a lockfile, returns {id, summary}
//	GET    /api/analyses/{id}                  full graph export
//	DELETE /api/analyses/{id}                  drop the analysis
//	GET    /api/analyses/{id}/summary?top=N    summary statistics
//	GET    /api/analyses/{id}/simulate?target=KEY&limit=N
//	GET    /api/analyses/{id}/graph.svg        node-link drawing
//	GET    /api/analyses/{id}/graph.dot        Graphviz source
//	GET    /healthz
//
// Errors are JSON objects {"error": CODE, "message": text} with the status
// given by [errors.HTTPStatus].
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lockrisk/pkg/pipeline"
	"github.com/matzehuels/lockrisk/pkg/session"
)

// Config holds server settings.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	SessionTTL     time.Duration
	TopN           int
	DisplayLimit   int
	IncludeDev     bool
	Detailed       bool
	RequestTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 32 << 20
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = session.DefaultTTL
	}
	if c.TopN <= 0 {
		c.TopN = pipeline.DefaultTopN
	}
	if c.DisplayLimit <= 0 {
		c.DisplayLimit = pipeline.DefaultDisplayLimit
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = time.Minute
	}
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	store  session.Store
	logger *log.Logger
	router chi.Router
}

// New creates a server. A nil store keeps sessions in memory.
func New(cfg Config, runner *pipeline.Runner, store session.Store, logger *log.Logger) *Server {
	cfg.setDefaults()
	if store == nil {
		store = session.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  store,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.health)

	r.Route("/api/analyses", func(r chi.Router) {
		r.Post("/", s.createAnalysis)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.getAnalysis)
			r.Delete("/", s.deleteAnalysis)
			r.Get("/summary", s.getSummary)
			r.Get("/simulate", s.simulate)
			r.Get("/graph.svg", s.graphSVG)
			r.Get("/graph.dot", s.graphDOT)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept in the background while the server runs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.RunCleanup(ctx, s.store, time.Minute)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
