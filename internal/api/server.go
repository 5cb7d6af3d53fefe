package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/klotz/summarizer-service/internal/cards"
	"github.com/klotz/summarizer-service/internal/config"
	"github.com/klotz/summarizer-service/internal/metrics"
	"github.com/klotz/summarizer-service/internal/session"
	"github.com/klotz/summarizer-service/internal/views"
)

type Server struct {
	router   *cards.Router
	renderer *views.Renderer
	store    session.Store
	codec    *session.Codec
	cfg      config.Config
	log      zerolog.Logger
}

func NewServer(app *cards.App, store session.Store, renderer *views.Renderer, cfg config.Config) *Server {
	return &Server{
		router:   cards.NewRouter(app),
		renderer: renderer,
		store:    store,
		codec:    session.NewCodec(cfg.SecretKey, cfg.SessionTTL),
		cfg:      cfg,
		log:      app.Log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.quietRequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", redirectTo("/card/"+cards.PageHome))
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessions)
		r.Get("/card/{page}", s.card)
		r.Post("/card/{page}", s.card)
	})

	// Old entry points kept for bookmarklets.
	r.HandleFunc("/scuttle", redirectTo("/card/"+cards.PageScuttle))
	r.HandleFunc("/summarize", redirectTo("/card/"+cards.PageSummarize))

	return r
}

// redirectTo keeps the query string so bookmarklets carrying ?url= still bind.
func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func (s *Server) card(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if err := r.ParseForm(); err != nil {
		s.recordRequest(r, page, http.StatusBadRequest)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	handle, err := session.Open(r.Context(), s.store, sessionID(r.Context()))
	if err != nil {
		s.log.Error().Err(err).Msg("open session")
		s.recordRequest(r, page, http.StatusInternalServerError)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	resp, err := s.router.Route(r.Context(), page, &cards.Request{
		Method:  r.Method,
		Params:  requestParams(r),
		Session: handle,
	})
	if err != nil {
		s.log.Error().Err(err).Str("page", page).Msg("render card")
		s.recordRequest(r, page, http.StatusInternalServerError)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if resp.Redirect != "" {
		s.recordRequest(r, page, http.StatusFound)
		http.Redirect(w, r, resp.Redirect, http.StatusFound)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, resp.View); err != nil {
		s.log.Error().Err(err).Str("template", resp.View.Template).Msg("execute template")
		s.recordRequest(r, page, http.StatusInternalServerError)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.recordRequest(r, resp.View.Page, resp.Status)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(buf.Bytes())
}

// requestParams merges the form body and the query string. The query string
// wins when both carry a name.
func requestParams(r *http.Request) url.Values {
	params := url.Values{}
	for name, values := range r.PostForm {
		params[name] = values
	}
	for name, values := range r.URL.Query() {
		params[name] = values
	}
	return params
}

// recordRequest labels unknown pages as the error page so metric labels stay
// bounded.
func (s *Server) recordRequest(r *http.Request, page string, status int) {
	if !knownPage(page) {
		page = cards.PageError
	}
	metrics.RecordCardRequest(page, r.Method, strconv.Itoa(status))
}

func knownPage(page string) bool {
	for _, p := range cards.Pages() {
		if p == page {
			return true
		}
	}
	return false
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type subsystemStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	Subsystems map[string]subsystemStatus `json:"subsystems"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	subsystems := map[string]subsystemStatus{}
	overall := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		subsystems["sessions"] = subsystemStatus{Status: "error", Error: err.Error()}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["sessions"] = subsystemStatus{Status: "ok"}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	writeJSONStatus(w, readinessResponse{Status: status, Subsystems: subsystems}, overall)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func (s *Server) quietRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSuppressRequestLog(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func shouldSuppressRequestLog(method string, path string) bool {
	if method != http.MethodGet {
		return false
	}
	switch strings.TrimSpace(path) {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}

// Start serves until ctx is cancelled, then drains for ShutdownTimeout.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
