// Package server provides the HTTP server and handlers.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bryan-buckman/corvettetrader/internal/feed"
	"github.com/bryan-buckman/corvettetrader/internal/listing"
	"github.com/bryan-buckman/corvettetrader/internal/logging"
	"github.com/bryan-buckman/corvettetrader/internal/metrics"
	"github.com/bryan-buckman/corvettetrader/internal/model"
	"github.com/bryan-buckman/corvettetrader/internal/render"
	"github.com/bryan-buckman/corvettetrader/internal/rss"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ResultCountHeader carries the result count of the /results fragment.
const ResultCountHeader = "X-Result-Count"

// Options configures the server.
type Options struct {
	Title         string
	SiteURL       string // absolute site root used in the RSS export
	ReloadTimeout time.Duration
}

// Server is the main HTTP server.
type Server struct {
	catalog   *feed.Catalog
	poller    *feed.Poller
	logger    *zap.Logger
	opts      Options
	router    chi.Router
	templates *template.Template
	http      *http.Server
}

// New creates a new server. The poller may be nil.
func New(catalog *feed.Catalog, poller *feed.Poller, logger *zap.Logger, opts Options) (*Server, error) {
	tmpl, err := template.New("").Funcs(render.Funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = "CorvetteTrader.ca | Parts Classifieds"
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = time.Minute
	}

	s := &Server{
		catalog:   catalog,
		poller:    poller,
		logger:    logger,
		opts:      opts,
		templates: tmpl,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Serve static files.
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Pages.
	r.Get("/", s.handleHome)
	r.Get("/results", s.handleResults)
	r.Get("/feed.xml", s.handleFeedXML)

	// API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/listings", s.handleListings)
		r.Get("/listings/{id}", s.handleListing)
		r.Get("/facets", s.handleFacets)
		r.Post("/reload", s.handleReload)
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the poller and serves on addr until Stop is called. Start and
// Stop may run on different goroutines; a Stop that wins the race makes Start
// return nil without serving.
func (s *Server) Start(addr string) error {
	if s.poller != nil {
		s.poller.Start()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Server starting", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the poller and shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.poller != nil {
		s.poller.Stop()
	}
	return s.http.Shutdown(ctx)
}

// --- Page Handlers ---

type selectControl struct {
	Name     string
	Label    string
	Options  []string
	Selected string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	criteria := listing.CriteriaFromValues(query)
	snap := s.catalog.Snapshot()

	view, err := render.Results(snap, criteria)
	if err != nil {
		s.renderError(w, err)
		return
	}
	metrics.RecordRender("page", view.Count)

	data := map[string]interface{}{
		"Title":   s.opts.Title,
		"Keyword": criteria.Keyword,
		"Min":     query.Get(listing.FieldMin),
		"Max":     query.Get(listing.FieldMax),
		"Selects": []selectControl{
			{Name: listing.FieldGeneration, Label: "Generation", Options: snap.Facets.Generations, Selected: criteria.Generation},
			{Name: listing.FieldPartType, Label: "Part type", Options: snap.Facets.PartTypes, Selected: criteria.PartType},
			{Name: listing.FieldProvince, Label: "Province", Options: snap.Facets.Provinces, Selected: criteria.Province},
		},
		"View": view,
	}
	s.render(w, "layout.html", data)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	criteria := listing.CriteriaFromValues(r.URL.Query())
	view, err := render.Results(s.catalog.Snapshot(), criteria)
	if err != nil {
		s.renderError(w, err)
		return
	}
	metrics.RecordRender("results", view.Count)
	s.logger.Debug("Rendered results",
		zap.String("criteria", criteriaSummary(criteria)),
		zap.Int("count", view.Count))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(ResultCountHeader, strconv.Itoa(view.Count))
	w.Write([]byte(view.HTML))
}

func (s *Server) handleFeedXML(w http.ResponseWriter, r *http.Request) {
	criteria := listing.CriteriaFromValues(r.URL.Query())
	listings := listing.Apply(s.catalog.Snapshot().Listings, criteria)

	data, err := rss.Export(rss.Meta{
		Title:       s.opts.Title,
		Link:        s.opts.SiteURL,
		Description: "Latest car parts listings",
	}, listings)
	if err != nil {
		s.logger.Error("RSS export failed", zap.Error(err))
		http.Error(w, "Failed to export", http.StatusInternalServerError)
		return
	}
	metrics.RecordRender("rss", len(listings))

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(data)
}

// --- API Handlers ---

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	listings := listing.Apply(snap.Listings, listing.CriteriaFromValues(r.URL.Query()))
	metrics.RecordRender("api", len(listings))

	resp := map[string]interface{}{
		"state":    snap.State.String(),
		"count":    len(listings),
		"listings": listings,
	}
	if snap.Err != nil {
		resp["error"] = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	l, ok := s.catalog.Snapshot().Listing(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found"})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Snapshot().Facets)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReloadTimeout)
	defer cancel()

	snap, err := s.catalog.Reload(ctx)
	resp := map[string]interface{}{
		"status":   "ok",
		"state":    snap.State.String(),
		"listings": len(snap.Listings),
	}
	if err != nil {
		resp["status"] = "error"
		resp["error"] = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	resp := map[string]interface{}{
		"state":    snap.State.String(),
		"source":   snap.Source,
		"listings": len(snap.Listings),
	}
	if !snap.LoadedAt.IsZero() {
		resp["loaded_at"] = snap.LoadedAt.Format(time.RFC3339)
	}
	if snap.Err != nil {
		resp["error"] = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.renderError(w, err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.logger.Error("Template error", zap.Error(err))
	http.Error(w, "Render error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// criteriaSummary is used in logs.
func criteriaSummary(c model.Criteria) string {
	return listing.Values(c).Encode()
}
