package http

import (
	"net/http"
	"strings"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/services"
)

type entryRequest struct {
	Amount   core.Money     `json:"amount"`
	Type     core.EntryType `json:"type"`
	Category core.Category  `json:"category"`
	Date     core.Date      `json:"date"`
	Note     string         `json:"note"`
}

func (req entryRequest) draft() services.EntryDraft {
	return services.EntryDraft{
		Amount:   req.Amount,
		Type:     core.EntryType(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		Category: req.Category,
		Date:     req.Date,
		Note:     sanitizeInput(req.Note),
	}
}

// sanitizeInput strips control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// handleListEntries returns every entry, or one month's newest first when
// year and month are given.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		entries, err := s.deps.Entries.List(r.Context())
		if err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(entries))
		return
	}
	year, month, err := queryYearMonth(r, s.deps.Clock())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	entries, err := s.deps.Entries.ListByMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	res, err := s.deps.Entries.Add(r.Context(), req.draft())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Entries.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	e, err := s.deps.Entries.Update(r.Context(), r.PathValue("id"), req.draft())
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Entries.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
