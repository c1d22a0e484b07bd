package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/analytics"
	"github.com/RoGogDBD/honeypot-dashboard/internal/geo"
	"github.com/RoGogDBD/honeypot-dashboard/internal/sensor"
	"go.uber.org/zap"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 500
)

// HandleAttackFrequency отдаёт число атак по категориям.
func (h *Handler) HandleAttackFrequency(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByCategory(r.Context())
	if err != nil {
		h.internalError(w, "failed to count attacks by category", err)
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.Frequency(h.categories, counts))
}

// HandleAttackTrend отдаёт число атак по месяцам текущего года (UTC).
func (h *Handler) HandleAttackTrend(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByMonth(r.Context(), h.now().UTC().Year())
	if err != nil {
		h.internalError(w, "failed to count attacks by month", err)
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.Trend(counts))
}

// HandleAttacksByCountry отдаёт семь стран с наибольшим числом атак и корзину Other.
func (h *Handler) HandleAttacksByCountry(w http.ResponseWriter, r *http.Request) {
	bySource, locations, ok := h.resolveSources(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.ByCountry(analytics.CountryCounts(bySource, locations)))
}

// HandleAttackLocations отдаёт точки карты по определённым адресам.
func (h *Handler) HandleAttackLocations(w http.ResponseWriter, r *http.Request) {
	bySource, locations, ok := h.resolveSources(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.Locations(bySource, locations))
}

func (h *Handler) resolveSources(w http.ResponseWriter, r *http.Request) (map[string]int, map[string]geo.Location, bool) {
	bySource, err := h.store.CountBySource(r.Context())
	if err != nil {
		h.internalError(w, "failed to count attacks by source", err)
		return nil, nil, false
	}
	locations := map[string]geo.Location{}
	if h.geo != nil {
		locations = h.geo.Resolve(r.Context(), analytics.Sources(bySource))
	}
	return bySource, locations, true
}

// HandleRecent отдаёт последние события, по умолчанию 10.
// Некорректный limit заменяется значением по умолчанию.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxRecentLimit)
		}
	}

	events, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.internalError(w, "failed to load recent attacks", err)
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

// Summary - сводка для страницы аналитики.
type Summary struct {
	TotalAttacks     int           `json:"total_attacks"`
	AttacksLast24h   int           `json:"attacks_last_24h"`
	ConnectedViewers int           `json:"connected_viewers"`
	Sensor           *sensor.Stats `json:"sensor,omitempty"`
}

// HandleSummary отдаёт общую статистику и показатели хоста.
// Ошибка чтения показателей хоста не влияет на ответ.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.store.Count(ctx)
	if err != nil {
		h.internalError(w, "failed to count attacks", err)
		return
	}
	recent, err := h.store.CountSince(ctx, h.now().Add(-24*time.Hour))
	if err != nil {
		h.internalError(w, "failed to count recent attacks", err)
		return
	}

	out := Summary{TotalAttacks: total, AttacksLast24h: recent}
	if h.viewers != nil {
		out.ConnectedViewers = h.viewers.ClientCount()
	}
	if h.sensor != nil {
		stats, err := h.sensor.Read(ctx)
		if err != nil {
			h.logger.Warn("failed to read sensor stats", zap.Error(err))
		} else {
			out.Sensor = &stats
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}
