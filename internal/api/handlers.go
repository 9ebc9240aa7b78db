// Package api exposes the stored history and the step report over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/wellness/internal/auth"
	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/persistence"
	"example.com/wellness/internal/report"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Handler serves read-only views over a domain.Reader.
type Handler struct {
	reader       domain.Reader
	annualTarget int64
	now          func() time.Time
}

// Option configures the Handler.
type Option func(*Handler)

// WithClock overrides the clock used to default the report end date.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler builds a Handler. A non-positive annualTarget falls back to the report default.
func NewHandler(reader domain.Reader, annualTarget int64, opts ...Option) *Handler {
	h := &Handler{reader: reader, annualTarget: annualTarget, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/reports/steps", h.readOnly(h.stepsReport))
	mux.HandleFunc("/v1/daily-stats", h.readOnly(h.dailyStats))
	mux.HandleFunc("/v1/activities", h.readOnly(h.activities))
	mux.HandleFunc("/v1/weigh-ins", h.readOnly(h.weighIns))
	mux.HandleFunc("/healthz", healthz)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readOnly restricts a route to GET and the reports:read scope.
func (h *Handler) readOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !claims.HasScope(auth.ScopeReportsRead) {
			writeError(w, http.StatusForbidden, "forbidden", "scope reports:read required")
			return
		}
		next(w, r)
	}
}

func (h *Handler) stepsReport(w http.ResponseWriter, r *http.Request) {
	end := domain.DateOf(h.now()).AddDate(0, 0, -1)
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "end must be YYYY-MM-DD")
			return
		}
		end = parsed
	}

	days, err := h.reader.DailyStats(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSummaryView(report.Compute(days, end, h.annualTarget)))
}

func (h *Handler) dailyStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	stats, err := h.reader.DailyStats(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	items := make([]DailyStatView, 0, len(stats))
	for _, s := range stats {
		items = append(items, toDailyStatView(s))
	}
	writeJSON(w, http.StatusOK, ListResponse[DailyStatView]{Items: items})
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxPageSize)
		}
	}

	var typeIDs []int
	if raw := r.URL.Query().Get("type_id"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", "type_id must be a comma separated list of integers")
				return
			}
			typeIDs = append(typeIDs, id)
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	acts, next, err := h.reader.Activities(r.Context(), domain.ActivityFilter{
		TypeIDs: typeIDs,
		From:    from,
		To:      to,
		After:   cursor,
		Limit:   limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(acts))
	for _, a := range acts {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ListResponse[ActivityView]{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) weighIns(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	rows, err := h.reader.WeighIns(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	items := make([]WeighInView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toWeighInView(row))
	}
	writeJSON(w, http.StatusOK, ListResponse[WeighInView]{Items: items})
}

// parseRange reads the optional from/to query dates, swapping them when reversed.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		from, to = to, from
	}
	return from, to, nil
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
