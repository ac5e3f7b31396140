// Package api exposes the operator-facing HTTP surface: health, the current
// week's prayer list, the active-session count, and a manual trigger for the
// engagement post.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/harborlight-labs/shepherd/internal/assessment"
	"github.com/harborlight-labs/shepherd/internal/models"
	"github.com/harborlight-labs/shepherd/internal/store"
	"github.com/harborlight-labs/shepherd/internal/util"
)

// EngagementPoster triggers one engagement post to the mentor channel.
type EngagementPoster interface {
	PostEngagement(ctx context.Context) error
}

// Server is the admin HTTP server.
type Server struct {
	st     store.Store
	engine *assessment.Engine
	poster EngagementPoster
	srv    *http.Server
	now    func() time.Time
}

// NewServer creates the admin server listening on addr.
func NewServer(st store.Store, engine *assessment.Engine, poster EngagementPoster, addr string) *Server {
	s := &Server{
		st:     st,
		engine: engine,
		poster: poster,
		now:    time.Now,
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/prayers", s.listPrayersHandler)
		r.Get("/sessions/count", s.sessionCountHandler)
		r.Post("/engagement/run", s.runEngagementHandler)
	})
	return r
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		slog.Info("admin API listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin API failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, success(map[string]string{"status": "up"}))
}

// listPrayersHandler handles GET /v1/prayers?week=current. The window is the
// Monday-to-Sunday UTC week containing now.
func (s *Server) listPrayersHandler(w http.ResponseWriter, r *http.Request) {
	week := r.URL.Query().Get("week")
	if week != "" && week != "current" {
		writeJSONResponse(w, http.StatusBadRequest, errorResponse("Only week=current is supported"))
		return
	}

	start, end := util.WeekBounds(s.now())
	prayers, err := s.st.PrayersBetween(start, end)
	if err != nil {
		slog.Error("listPrayersHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, errorResponse("Failed to list prayers"))
		return
	}
	if prayers == nil {
		prayers = []models.PrayerRecord{}
	}

	slog.Debug("listPrayersHandler succeeded", "count", len(prayers))
	writeJSONResponse(w, http.StatusOK, success(map[string]any{
		"week_start": start.Format(time.RFC3339),
		"week_end":   end.Format(time.RFC3339),
		"prayers":    prayers,
	}))
}

func (s *Server) sessionCountHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, success(map[string]int{"active": s.engine.ActiveSessions()}))
}

// runEngagementHandler handles POST /v1/engagement/run, posting one
// engagement pair immediately instead of waiting for the schedule.
func (s *Server) runEngagementHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.poster.PostEngagement(r.Context()); err != nil {
		slog.Error("runEngagementHandler failed", "error", err)
		writeJSONResponse(w, http.StatusBadGateway, errorResponse("Failed to post engagement message"))
		return
	}
	writeJSONResponse(w, http.StatusOK, success(map[string]string{"message": "engagement posted"}))
}
