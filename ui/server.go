package ui

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"go.uber.org/zap"

	"replipack/domain/artefact"
	"replipack/internal/pack"
)

// Server is a read-only inspection surface over one run directory. It never
// mutates a pack; the core pipeline stays network-free.
type Server struct {
	dir    string
	logger *zap.Logger
}

// NewServer creates an inspection server for a run directory.
func NewServer(dir string, logger *zap.Logger) *Server {
	return &Server{dir: dir, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleReport)
	r.Get("/verdict", s.serveFile(pack.FileVerdictDetails, "application/json"))
	r.Get("/run-manifest", s.serveFile(pack.FileRunManifest, "application/json"))
	r.Get("/manifest", s.serveFile(pack.FileManifest, "text/csv"))
	r.Get("/hashes", s.serveFile(pack.FileHashes, "text/plain"))
	r.Get("/tables/fit-summary", s.serveFile(pack.FileFitSummary, "text/csv"))
	r.Get("/files/{name}", s.handleArtefact)

	return r
}

// ListenAndServe blocks serving the inspection surface.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.logger.Info("inspection server listening", zap.String("addr", addr), zap.String("dir", s.dir))
	return srv.ListenAndServe()
}

func (s *Server) serveFile(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, filepath.Join(s.dir, name))
	}
}

// handleReport renders a small markdown run report to HTML.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var m artefact.RunManifest
	if err := pack.ReadJSON(filepath.Join(s.dir, pack.FileRunManifest), &m); err != nil {
		http.Error(w, "run manifest unavailable", http.StatusNotFound)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Replication pack %s\n\n", m.RunID)
	fmt.Fprintf(&b, "- Kit version: %s\n", m.KitVersion)
	fmt.Fprintf(&b, "- Seed: %d\n", m.Seed)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", m.Fingerprint.Fingerprint)
	fmt.Fprintf(&b, "- Created: %s\n", m.CreatedAt)
	if m.Verdict != "" {
		fmt.Fprintf(&b, "- Verdict: **%s**\n", m.Verdict)
	}
	b.WriteString("\n## Files\n\n")
	for _, f := range m.Files {
		fmt.Fprintf(&b, "- [%s](/%s)\n", f, routeFor(f))
	}

	html := markdown.ToHTML([]byte(b.String()), nil, nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func routeFor(name string) string {
	switch name {
	case pack.FileVerdictDetails:
		return "verdict"
	case pack.FileRunManifest:
		return "run-manifest"
	case pack.FileManifest:
		return "manifest"
	case pack.FileHashes:
		return "hashes"
	case pack.FileFitSummary:
		return "tables/fit-summary"
	default:
		return "files/" + name
	}
}

// handleArtefact serves a single artefact by basename; path traversal is
// rejected by construction.
func (s *Server) handleArtefact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) {
		http.Error(w, "invalid artefact name", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.dir, name))
}
