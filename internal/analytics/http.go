// internal/analytics/http.go
package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"msme-insights/internal/models"
)

// HTTPHandler exposes the read-only aggregation queries over HTTP:
//
//	GET /api/analytics/summary
//	GET /api/analytics/scheme-interests
//
// Filters arrive as query parameters; responses are JSON.
type HTTPHandler struct {
	aggregator *Aggregator
	logger     Logger
}

func NewHTTPHandler(aggregator *Aggregator, log Logger) *HTTPHandler {
	return &HTTPHandler{aggregator: aggregator, logger: log}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analytics/summary", h.handleSummary)
	mux.HandleFunc("/api/analytics/scheme-interests", h.handleSchemeInterests)
}

func (h *HTTPHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.aggregator.GetSummary(r.Context(), parseFilters(r))
	if err != nil {
		h.logger.Error("summary query failed", map[string]interface{}{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

func (h *HTTPHandler) handleSchemeInterests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	page := models.PageRequest{
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(q.Get("pageSize"), defaultPageSize),
	}
	sort := models.SortRequest{
		Field:     q.Get("sortField"),
		Direction: q.Get("sortDirection"),
	}

	result, err := h.aggregator.GetSchemeInterests(r.Context(), parseFilters(r), page, sort)
	if err != nil {
		h.logger.Error("scheme interest query failed", map[string]interface{}{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// parseFilters maps query parameters onto AnalyticsFilters. Unparseable or
// half-open date bounds degrade to "filter not applied".
func parseFilters(r *http.Request) models.AnalyticsFilters {
	q := r.URL.Query()
	filters := models.AnalyticsFilters{
		Location:     q.Get("location"),
		Industry:     q.Get("industry"),
		SchemeID:     q.Get("schemeId"),
		BusinessSize: q.Get("businessSize"),
	}

	if raw := q.Get("languages"); raw != "" {
		for _, lang := range strings.Split(raw, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				filters.Languages = append(filters.Languages, lang)
			}
		}
	}

	start, startOK := parseDate(q.Get("startDate"))
	end, endOK := parseDate(q.Get("endDate"))
	if startOK && endOK {
		filters.DateRange = &models.DateRange{StartDate: start, EndDate: end}
	}
	return filters
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
