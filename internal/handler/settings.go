package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
)

// maxSettingsBody ограничивает размер тела запроса настроек.
const maxSettingsBody = 64 << 10

// SettingsPayload - JSON-представление настроек оповещения.
type SettingsPayload struct {
	IsEnabled        bool    `json:"is_enabled"`
	RecipientEmail   string  `json:"recipient_email"`
	ThresholdCount   int     `json:"threshold_count"`
	ThresholdMinutes int     `json:"threshold_minutes"`
	LastAlertTime    *string `json:"last_alert_time"`
}

func payloadFromSettings(s models.AlertSettings) SettingsPayload {
	p := SettingsPayload{
		IsEnabled:        s.Enabled,
		RecipientEmail:   s.Recipient,
		ThresholdCount:   s.ThresholdCount,
		ThresholdMinutes: s.ThresholdMinutes,
	}
	if !s.LastAlertTime.IsZero() {
		ts := s.LastAlertTime.UTC().Format(time.RFC3339)
		p.LastAlertTime = &ts
	}
	return p
}

// HandleGetAlertSettings отдаёт текущие настройки оповещения.
func (h *Handler) HandleGetAlertSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, payloadFromSettings(h.settings.Snapshot()))
}

// HandleSaveAlertSettings сохраняет настройки оповещения.
//
// Запрос не отклоняется: отсутствующие и некорректные поля получают значения
// по умолчанию, тело, которое не удалось разобрать, даёт настройки по умолчанию.
func (h *Handler) HandleSaveAlertSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSettingsBody))
	if err != nil {
		body = nil
	}
	h.settings.Update(ParseAlertSettings(body))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ParseAlertSettings разбирает тело запроса настроек.
func ParseAlertSettings(body []byte) models.AlertSettings {
	out := models.DefaultAlertSettings()

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return out
	}

	out.Enabled = parseBool(raw["is_enabled"])
	out.Recipient = parseEmail(raw["recipient_email"])
	if n, ok := parsePositiveInt(raw["threshold_count"]); ok {
		out.ThresholdCount = n
	}
	if n, ok := parsePositiveInt(raw["threshold_minutes"]); ok {
		out.ThresholdMinutes = n
	}
	return out
}

func parseBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if t == "on" {
			return true
		}
		b, err := strconv.ParseBool(t)
		return err == nil && b
	case float64:
		return t != 0
	}
	return false
}

func parseEmail(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return ""
	}
	return addr.Address
}

func parsePositiveInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t >= 1 && t == float64(int(t)) {
			return int(t), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil && n >= 1 {
			return n, true
		}
	}
	return 0, false
}
