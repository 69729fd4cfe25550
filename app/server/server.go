// Package server exposes health, metrics and interim session reports over
// HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessionreport "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/report"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// ReportSource produces the interim report of a chat.
type ReportSource interface {
	GetReport(ctx context.Context, chatID sharedtypes.ChatID) (sessionservice.ReportResult, error)
}

// Config holds the listener settings.
type Config struct {
	Addr           string
	RateLimit      float64
	RateLimitBurst int
}

type renderer struct {
	contentType string
	render      func(io.Writer, sessionreport.Sheet) error
}

var renderers = map[string]renderer{
	"html": {"text/html; charset=utf-8", sessionreport.RenderHTML},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", sessionreport.RenderXLSX},
	"png":  {"image/png", sessionreport.RenderChart},
}

// Server is the HTTP surface of the bot.
type Server struct {
	http    *http.Server
	reports ReportSource
	logger  *slog.Logger
	now     func() time.Time
}

// New builds the router. registry may be nil, in which case /metrics is not
// mounted.
func New(cfg Config, reports ReportSource, registry *prometheus.Registry, logger *slog.Logger) *Server {
	s := &Server{reports: reports, logger: logger, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(NewClientLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateLimitBurst, 1)).Middleware)
		}
		r.Get("/chats/{chatID}/report.{format}", s.handleReport)
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", attr.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	chatID := sharedtypes.ChatID(chi.URLParam(r, "chatID"))
	format := chi.URLParam(r, "format")
	rend, ok := renderers[format]
	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_FORMAT", fmt.Sprintf("no report format %q", format))
		return
	}

	result, err := s.reports.GetReport(r.Context(), chatID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report request failed", attr.ChatID(chatID.String()), attr.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "report unavailable")
		return
	}
	if result.IsFailure() {
		f := *result.Failure
		status := http.StatusConflict
		if f.Code == sessiontypes.CodeNoSession {
			status = http.StatusNotFound
		}
		writeError(w, status, string(f.Code), f.Message)
		return
	}

	report := *result.Success
	var buf bytes.Buffer
	if err := rend.render(&buf, sessionreport.FromReport(*report)); err != nil {
		s.logger.ErrorContext(r.Context(), "Report rendering failed",
			attr.ChatID(chatID.String()),
			attr.String("format", format),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "report could not be rendered")
		return
	}

	w.Header().Set("Content-Type", rend.contentType)
	if format != "html" {
		name := sessionreport.FileName(report.Mode, s.now(), format)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}
