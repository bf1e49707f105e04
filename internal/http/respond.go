package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tesoretto/internal/core"
	applog "tesoretto/internal/log"
	"tesoretto/internal/storage"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrInvalidCategory,
	core.ErrInvalidDate,
	core.ErrMissingGroup,
	core.ErrNoteTooLong,
	core.ErrInvalidTheme,
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes: validation 422, missing 404,
// malformed input 400, anything else 500 with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := classify(err)
	logger := applog.FromContext(r.Context(), applog.ComponentHTTP)
	fields := applog.NewFields().WithOperation(op).WithError(err).WithErrorType(errType).ToSlice()

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
		msg = "internal error"
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields...)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func classify(err error) (int, string) {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound, applog.ErrorTypeNotFound
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
		}
	}
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest, applog.ErrorTypeValidation
	}
	return http.StatusInternalServerError, applog.ErrorTypeInternal
}

// decodeJSON reads a single JSON object. Domain errors raised by field
// decoders (amount, date) pass through unchanged.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		for _, ve := range validationErrors {
			if errors.Is(err, ve) {
				return err
			}
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// pathYearMonth reads {year} and {month} path values.
func pathYearMonth(r *http.Request) (int, time.Month, error) {
	return parseYearMonth(r.PathValue("year"), r.PathValue("month"))
}

// queryYearMonth reads ?year=&month=, defaulting to the month of now.
func queryYearMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	q := r.URL.Query()
	y, m := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if y == "" && m == "" {
		return now.Year(), now.Month(), nil
	}
	return parseYearMonth(y, m)
}

func parseYearMonth(y, m string) (int, time.Month, error) {
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, fmt.Errorf("%w: year %q", core.ErrInvalidDate, y)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month %q", core.ErrInvalidDate, m)
	}
	return year, time.Month(month), nil
}
