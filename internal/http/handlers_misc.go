package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"tesoretto/internal/core"
	"tesoretto/internal/export"
	applog "tesoretto/internal/log"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Entries.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, entries); err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}
	name := fmt.Sprintf("tesoretto-%s.csv", s.deps.Clock().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type themeBody struct {
	Theme core.Theme `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Preferences.Theme(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	t := core.Theme(strings.ToLower(strings.TrimSpace(string(body.Theme))))
	if err := s.deps.Preferences.SetTheme(r.Context(), t); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}
