// Package server exposes the authoring workflow as a local JSON API that a
// front end can drive.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/fetch"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves the JSON API.
type Server struct {
	cfg        Config
	db         *database.DB
	crafter    *craft.Crafter
	notes      *craft.Recorder
	fetcher    *fetch.Fetcher
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. notes collects the crafter's notifications for the
// /notifications endpoint and may be nil.
func New(cfg Config, db *database.DB, crafter *craft.Crafter, notes *craft.Recorder) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		crafter: crafter,
		notes:   notes,
		fetcher: fetch.NewFetcher(0),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "busy": s.crafter.Busy()})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/notifications", s.handleNotifications)
		r.Get("/triggers", s.handleListTriggers)
		r.Post("/fetch", s.handleFetchURL)

		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Route("/context", func(r chi.Router) {
				r.Get("/", s.handleGetContext)
				r.Put("/", s.handleSaveContext)
				r.Delete("/", s.handleDeleteContext)
			})
			mountRecords(r, "/icps", s.icpResource())
			mountRecords(r, "/authors", s.authorResource())
			mountRecords(r, "/stories", s.storyResource())

			r.Route("/ideas", func(r chi.Router) {
				r.Get("/", s.handleListIdeas)
				r.Post("/", s.handleAddIdea)
				r.Post("/generate", s.handleGenerateIdeas)
				r.Post("/save", s.handleSaveIdea)
				r.Put("/{id}/score", s.handleScoreIdea)
				r.Delete("/{id}", s.handleDeleteIdea)
			})

			r.Get("/forms/{kind}", s.handleGetForm)
			r.Post("/preview/{kind}", s.handlePreview)
			r.Post("/craft/{kind}", s.handleCraft)
			r.Post("/extract", s.handleExtract)

			r.Route("/triage/{icpID}", func(r chi.Router) {
				r.Get("/", s.handleRankedTriggers)
				r.Post("/", s.handleTriageTriggers)
			})

			r.Route("/drafts/{feature}/{contentType}", func(r chi.Router) {
				r.Get("/", s.handleGetDraft)
				r.Put("/", s.handlePutDraft)
				r.Delete("/", s.handleDeleteDraft)
			})

			r.Get("/export", s.handleExport)

			r.Route("/contents", func(r chi.Router) {
				r.Get("/", s.handleListContents)
				r.Get("/{id}", s.handleGetContent)
				r.Get("/{id}/preview", s.handlePreviewContent)
				r.Delete("/{id}", s.handleDeleteContent)
			})
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.S().Debugf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	out := []craft.Notification{}
	if s.notes != nil {
		out = append(out, s.notes.Drain()...)
	}
	writeJSON(w, http.StatusOK, out)
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	zap.S().Infof("Server listening on http://%s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
