package http

import (
	"context"
	"net/http"

	applog "tesoretto/internal/log"
)

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	data, err := s.deps.Analyzer.Month(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	year, month, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	groups, err := s.deps.Analyzer.Groups(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	year, month, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	shares, err := s.deps.Analyzer.Breakdown(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(shares))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Trends)
}

func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	growth, err := s.deps.Analyzer.Growth(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(growth))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Forecast)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Score)
}

// handleStreak also runs the validity check, so an expired streak reads 0.
func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Streak)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Achievements)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Insights)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	serve(w, r, s.deps.Analyzer.Dashboard)
}

// serve writes the result of a parameterless read.
func serve[T any](w http.ResponseWriter, r *http.Request, fn func(context.Context) (T, error)) {
	v, err := fn(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
