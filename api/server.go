// Package api exposes the reconciliation engine's scan and repair
// operations over HTTP for the admin UI. Authentication and session
// storage belong to an external layer; this package only checks the
// verdict of a SessionVerifier and enforces the admin role on every
// route it serves.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/op/go-logging"
	"github.com/tunevault/library-services/models/common"
	"github.com/tunevault/library-services/reconcile"
	"github.com/tunevault/library-services/upload"
)

type Server struct {
	Engine   *reconcile.Engine
	Uploads  *upload.Manager
	Sessions SessionVerifier
	Config   *common.Config
	Logger   *logging.Logger
}

func NewServer(context *common.Context, sessions SessionVerifier) *Server {
	return &Server{
		Engine:   reconcile.NewEngine(context),
		Uploads:  upload.NewManager(context),
		Sessions: sessions,
		Config:   context.Config,
		Logger:   context.Logger,
	}
}

// Router builds the route table. Every route here is destructive or
// exposes catalog-wide data, so the whole surface sits behind the
// admin check.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requireAdmin)

	r.Route("/cleanup", func(r chi.Router) {
		r.Get("/", s.handleOrphanScan)
		r.Delete("/", s.handleOrphanPurge)
		r.Get("/broken-links", s.handleBrokenScan)
		r.Delete("/broken-links", s.handleBrokenPurge)
		r.Delete("/object", s.handleObjectDelete)
	})
	r.Post("/rectify-orphans", s.handleRectify)

	return r
}

// ListenAndServe blocks serving the admin API on the configured port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.Config.ListenPort)
	s.Logger.Infof("Admin API listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
