package api

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/logger"
	"github.com/lox/inspectform/internal/sink"
	"github.com/lox/inspectform/internal/store"
)

type Server struct {
	session *form.Session
	store   *store.Store
	sink    sink.Sink // nil disables POST /api/export
	port    string
	tmpl    *template.Template
	log     zerolog.Logger
}

func NewServer(session *form.Session, st *store.Store, sk sink.Sink, port string) *Server {
	return &Server{
		session: session,
		store:   st,
		sink:    sk,
		port:    port,
		tmpl:    newTemplates(),
		log:     logger.Get("api"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("GET /partials/preview", s.handlePreviewPartial)
	mux.HandleFunc("GET /export.xlsx", s.handleExportDownload)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/state", s.handleAPIState)
	mux.HandleFunc("PUT /api/header/{field}", s.handleAPIHeader)
	mux.HandleFunc("PUT /api/sections/{stage}/{field}", s.handleAPISection)
	mux.HandleFunc("PUT /api/points/{stage}/{point}/{field}", s.handleAPIPoint)
	mux.HandleFunc("PUT /api/visibility/{stage}/{field}", s.handleAPIVisibility)
	mux.HandleFunc("PUT /api/note", s.handleAPINote)
	mux.HandleFunc("GET /api/rows", s.handleAPIRows)
	mux.HandleFunc("POST /api/reset", s.handleAPIReset)
	mux.HandleFunc("GET /api/archive", s.handleAPIArchiveList)
	mux.HandleFunc("GET /api/archive/{date}", s.handleAPIArchiveGet)
	mux.HandleFunc("POST /api/archive/{date}/load", s.handleAPIArchiveLoad)
	mux.HandleFunc("DELETE /api/archive/{date}", s.handleAPIArchiveDelete)
	mux.HandleFunc("POST /api/export", s.handleAPIExport)
	mux.HandleFunc("GET /api/exports", s.handleAPIExports)
	mux.HandleFunc("GET /api/exports/{id}", s.handleAPIExportPayload)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", server.Addr).Msg("starting server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
