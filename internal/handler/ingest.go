package handler

import (
	"encoding/json"
	"net/http"
	"net/netip"
	"slices"
	"strings"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"go.uber.org/zap"
)

// LogRequest - атака, добавляемая вручную.
type LogRequest struct {
	Timestamp  string `json:"timestamp"`
	IPAddress  string `json:"ip_address"`
	AttackType string `json:"attack_type"`
	Details    string `json:"details"`
}

// HandleSimulateLog сохраняет переданную атаку и рассылает её клиентам.
//
// attack_type должен входить в активный набор категорий, выведенные
// из эксплуатации категории отклоняются так же, как неизвестные.
//
// timestamp принимается в формате "2006-01-02 15:04:05" или RFC3339,
// пустое значение означает текущее время.
func (h *Handler) HandleSimulateLog(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(req.IPAddress))
	if err != nil || !addr.Is4() {
		http.Error(w, "invalid ip_address", http.StatusBadRequest)
		return
	}
	category := strings.TrimSpace(req.AttackType)
	if category == "" {
		http.Error(w, "missing attack_type", http.StatusBadRequest)
		return
	}
	if !slices.Contains(h.categories, category) {
		http.Error(w, "unknown attack_type", http.StatusBadRequest)
		return
	}
	ts, err := parseTimestamp(req.Timestamp, h.now)
	if err != nil {
		http.Error(w, "invalid timestamp", http.StatusBadRequest)
		return
	}

	event := models.AttackEvent{
		Timestamp:     ts,
		SourceAddress: addr.String(),
		Category:      category,
		Details:       req.Details,
	}
	if err := h.store.Append(r.Context(), &event); err != nil {
		h.internalError(w, "failed to persist manual attack", err)
		return
	}
	if h.publisher != nil {
		h.publisher.Notify(event.Message())
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Log simulated successfully"})
}

func parseTimestamp(s string, now func() time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now(), nil
	}
	if ts, err := time.ParseInLocation(models.TimestampLayout, s, time.Local); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}

// GeolocateResponse - местоположение одного адреса.
type GeolocateResponse struct {
	IPAddress   string  `json:"ip_address"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// HandleGeolocateIP определяет местоположение адреса из поля формы ip_address.
func (h *Handler) HandleGeolocateIP(w http.ResponseWriter, r *http.Request) {
	addr, err := netip.ParseAddr(strings.TrimSpace(r.FormValue("ip_address")))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ip_address"})
		return
	}
	if h.geo == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "geolocation disabled"})
		return
	}

	ip := addr.String()
	loc, ok := h.geo.Resolve(r.Context(), []string{ip})[ip]
	if !ok {
		h.logger.Debug("address not resolved", zap.String("ip", ip))
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, GeolocateResponse{
		IPAddress:   ip,
		Country:     loc.Country,
		CountryCode: loc.CountryCode,
		Lat:         loc.Lat,
		Lon:         loc.Lon,
	})
}
