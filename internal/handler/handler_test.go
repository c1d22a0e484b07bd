package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/analytics"
	"github.com/RoGogDBD/honeypot-dashboard/internal/geo"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/internal/repository"
	"github.com/RoGogDBD/honeypot-dashboard/internal/sensor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, events ...models.AttackEvent) (*Handler, *repository.MemStorage) {
	t.Helper()
	store := repository.NewMemStorage()
	for i := range events {
		require.NoError(t, store.Append(context.Background(), &events[i]))
	}
	h := NewHandler(store, repository.NewSettingsStore(), models.ActiveCategories(false), zap.NewNop())
	h.now = func() time.Time { return testNow }
	return h, store
}

// TestParseAlertSettings_TableDriven проверяет разбор настроек с подстановкой значений по умолчанию.
func TestParseAlertSettings_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.AlertSettings
	}{
		{
			name: "valid",
			body: `{"is_enabled":true,"recipient_email":"soc@example.com","threshold_count":5,"threshold_minutes":2}`,
			want: models.AlertSettings{Enabled: true, Recipient: "soc@example.com", ThresholdCount: 5, ThresholdMinutes: 2},
		},
		{
			name: "string values",
			body: `{"is_enabled":"on","recipient_email":" soc@example.com ","threshold_count":"7","threshold_minutes":"3"}`,
			want: models.AlertSettings{Enabled: true, Recipient: "soc@example.com", ThresholdCount: 7, ThresholdMinutes: 3},
		},
		{
			name: "invalid fields fall back to defaults",
			body: `{"is_enabled":true,"recipient_email":"not-an-email","threshold_count":-1,"threshold_minutes":"abc"}`,
			want: models.AlertSettings{Enabled: true, ThresholdCount: 20, ThresholdMinutes: 5},
		},
		{
			name: "fractional threshold",
			body: `{"threshold_count":2.5}`,
			want: models.DefaultAlertSettings(),
		},
		{
			name: "malformed body",
			body: `{"is_enabled":`,
			want: models.DefaultAlertSettings(),
		},
		{
			name: "empty body",
			body: ``,
			want: models.DefaultAlertSettings(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseAlertSettings([]byte(tt.body)))
		})
	}
}

// TestHandler_AlertSettingsRoundTrip проверяет сохранение и чтение настроек по HTTP.
func TestHandler_AlertSettingsRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"is_enabled":true,"recipient_email":"soc@example.com","threshold_count":3,"threshold_minutes":1}`
	w := httptest.NewRecorder()
	h.HandleSaveAlertSettings(w, httptest.NewRequest(http.MethodPost, "/save-alert-settings", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"success"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.HandleGetAlertSettings(w, httptest.NewRequest(http.MethodGet, "/get-alert-settings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"is_enabled":true,"recipient_email":"soc@example.com","threshold_count":3,"threshold_minutes":1,"last_alert_time":null}`, w.Body.String())

	h.settings.MarkAlerted(testNow)
	w = httptest.NewRecorder()
	h.HandleGetAlertSettings(w, httptest.NewRequest(http.MethodGet, "/get-alert-settings", nil))
	var got SettingsPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.LastAlertTime)
	require.Equal(t, "2026-06-01T12:00:00Z", *got.LastAlertTime)
}

// TestHandler_SaveMalformedSettings проверяет, что некорректное тело не отклоняется.
func TestHandler_SaveMalformedSettings(t *testing.T) {
	h, _ := newTestHandler(t)
	h.settings.Update(models.AlertSettings{Enabled: true, Recipient: "soc@example.com", ThresholdCount: 1, ThresholdMinutes: 1})

	w := httptest.NewRecorder()
	h.HandleSaveAlertSettings(w, httptest.NewRequest(http.MethodPost, "/save-alert-settings", strings.NewReader("garbage")))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.DefaultAlertSettings(), h.settings.Snapshot())
}

// TestHandler_Charts проверяет ответы API графиков.
func TestHandler_Charts(t *testing.T) {
	events := []models.AttackEvent{
		{Timestamp: testNow, SourceAddress: "1.1.1.1", Category: models.XSS},
		{Timestamp: testNow, SourceAddress: "1.1.1.1", Category: models.XSS},
		{Timestamp: testNow.AddDate(0, -2, 0), SourceAddress: "8.8.8.8", Category: models.DDoS},
		{Timestamp: testNow.AddDate(-1, 0, 0), SourceAddress: "9.9.9.9", Category: models.Phishing},
	}

	tests := []struct {
		name    string
		handler func(h *Handler) http.HandlerFunc
		want    analytics.Chart
	}{
		{
			name:    "frequency",
			handler: func(h *Handler) http.HandlerFunc { return h.HandleAttackFrequency },
			want: analytics.Chart{
				Labels:   []string{"SQL Injection", "XSS", "DDoS", "Phishing"},
				Datasets: []analytics.Dataset{{Data: []int{0, 2, 1, 1}}},
			},
		},
		{
			name:    "trend",
			handler: func(h *Handler) http.HandlerFunc { return h.HandleAttackTrend },
			want: analytics.Chart{
				Labels:   []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
				Datasets: []analytics.Dataset{{Data: []int{0, 0, 0, 1, 0, 2, 0, 0, 0, 0, 0, 0}}},
			},
		},
		{
			name:    "by country",
			handler: func(h *Handler) http.HandlerFunc { return h.HandleAttacksByCountry },
			want: analytics.Chart{
				Labels:   []string{"Australia", "United States"},
				Datasets: []analytics.Dataset{{Data: []int{2, 1}}},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, events...)
			h.SetGeo(stubResolver{
				"1.1.1.1": {Country: "Australia", CountryCode: "AU"},
				"8.8.8.8": {Country: "United States", CountryCode: "US"},
			})

			w := httptest.NewRecorder()
			tt.handler(h)(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got analytics.Chart
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			require.Equal(t, tt.want, got)
		})
	}
}

// stubResolver возвращает известные адреса из карты.
type stubResolver map[string]geo.Location

func (s stubResolver) Resolve(_ context.Context, addrs []string) map[string]geo.Location {
	out := make(map[string]geo.Location)
	for _, a := range addrs {
		if loc, ok := s[a]; ok {
			out[a] = loc
		}
	}
	return out
}

func TestHandler_AttackLocations(t *testing.T) {
	h, _ := newTestHandler(t,
		models.AttackEvent{Timestamp: testNow, SourceAddress: "1.1.1.1", Category: models.XSS},
		models.AttackEvent{Timestamp: testNow, SourceAddress: "9.9.9.9", Category: models.XSS},
	)
	h.SetGeo(stubResolver{"1.1.1.1": {Country: "Australia", CountryCode: "AU", Lat: -33.4, Lon: 151.2}})

	w := httptest.NewRecorder()
	h.HandleAttackLocations(w, httptest.NewRequest(http.MethodGet, "/api/attack_locations", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t,
		`[{"source_address":"1.1.1.1","country":"Australia","country_code":"AU","lat":-33.4,"lon":151.2,"count":1}]`,
		w.Body.String())
}

// TestHandler_Recent проверяет разбор limit.
func TestHandler_Recent(t *testing.T) {
	events := make([]models.AttackEvent, 0, 15)
	for i := 0; i < 15; i++ {
		events = append(events, models.AttackEvent{Timestamp: testNow.Add(time.Duration(i) * time.Second), SourceAddress: "1.1.1.1", Category: models.XSS})
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=3", 3},
		{"?limit=100", 15},
		{"?limit=0", 10},
		{"?limit=abc", 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.query, func(t *testing.T) {
			h, _ := newTestHandler(t, events...)
			w := httptest.NewRecorder()
			h.HandleRecent(w, httptest.NewRequest(http.MethodGet, "/api/recent"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var got []models.AttackEvent
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			require.Len(t, got, tt.want)
		})
	}
}

type stubViewers int

func (s stubViewers) ClientCount() int { return int(s) }

type stubSensor struct {
	stats sensor.Stats
	err   error
}

func (s stubSensor) Read(context.Context) (sensor.Stats, error) { return s.stats, s.err }

func TestHandler_Summary(t *testing.T) {
	tests := []struct {
		name       string
		sensor     stubSensor
		wantSensor bool
	}{
		{name: "with sensor", sensor: stubSensor{stats: sensor.Stats{CPUPercent: 12.5, MemoryPercent: 40, UptimeSeconds: 3600}}, wantSensor: true},
		{name: "sensor failure", sensor: stubSensor{err: errors.New("no procfs")}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t,
				models.AttackEvent{Timestamp: testNow.Add(-time.Hour), SourceAddress: "1.1.1.1", Category: models.XSS},
				models.AttackEvent{Timestamp: testNow.Add(-48 * time.Hour), SourceAddress: "1.1.1.1", Category: models.XSS},
			)
			h.SetViewers(stubViewers(3))
			h.SetSensor(tt.sensor)

			w := httptest.NewRecorder()
			h.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var got Summary
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			require.Equal(t, 2, got.TotalAttacks)
			require.Equal(t, 1, got.AttacksLast24h)
			require.Equal(t, 3, got.ConnectedViewers)
			require.Equal(t, tt.wantSensor, got.Sensor != nil)
		})
	}
}

type recordingPublisher struct {
	messages []models.AttackMessage
}

func (p *recordingPublisher) Notify(msg models.AttackMessage) { p.messages = append(p.messages, msg) }

// TestHandler_SimulateLog проверяет ручное добавление атаки.
func TestHandler_SimulateLog(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStored int
	}{
		{
			name:       "stored and published",
			body:       `{"timestamp":"2026-05-31 10:00:00","ip_address":"103.27.70.100","attack_type":"XSS","details":"manual"}`,
			wantStatus: http.StatusOK,
			wantStored: 1,
		},
		{
			name:       "default timestamp",
			body:       `{"ip_address":"8.8.8.8","attack_type":"DDoS"}`,
			wantStatus: http.StatusOK,
			wantStored: 1,
		},
		{name: "bad address", body: `{"ip_address":"nope","attack_type":"XSS"}`, wantStatus: http.StatusBadRequest},
		{name: "missing category", body: `{"ip_address":"8.8.8.8"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown category", body: `{"ip_address":"8.8.8.8","attack_type":"Ransomware"}`, wantStatus: http.StatusBadRequest},
		{name: "retired category", body: `{"ip_address":"8.8.8.8","attack_type":"Brute Force"}`, wantStatus: http.StatusBadRequest},
		{name: "bad timestamp", body: `{"timestamp":"yesterday","ip_address":"8.8.8.8","attack_type":"XSS"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h, store := newTestHandler(t)
			pub := &recordingPublisher{}
			h.SetPublisher(pub)

			w := httptest.NewRecorder()
			h.HandleSimulateLog(w, httptest.NewRequest(http.MethodPost, "/simulate_log", strings.NewReader(tt.body)))
			require.Equal(t, tt.wantStatus, w.Code)

			count, err := store.Count(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantStored, count)
			require.Len(t, pub.messages, tt.wantStored)

			fw := httptest.NewRecorder()
			h.HandleAttackFrequency(fw, httptest.NewRequest(http.MethodGet, "/api/attack_frequency", nil))
			require.Equal(t, http.StatusOK, fw.Code)

			var chart analytics.Chart
			require.NoError(t, json.Unmarshal(fw.Body.Bytes(), &chart))
			total := 0
			for _, n := range chart.Datasets[0].Data {
				total += n
			}
			require.Equal(t, count, total)
		})
	}
}

// TestHandler_FrequencyIncludesRetiredCategory проверяет, что сохранённые
// события выведенной категории попадают в график.
func TestHandler_FrequencyIncludesRetiredCategory(t *testing.T) {
	h, store := newTestHandler(t,
		models.AttackEvent{Timestamp: testNow, SourceAddress: "1.1.1.1", Category: models.BruteForce},
		models.AttackEvent{Timestamp: testNow, SourceAddress: "1.1.1.1", Category: models.XSS},
	)

	w := httptest.NewRecorder()
	h.HandleAttackFrequency(w, httptest.NewRequest(http.MethodGet, "/api/attack_frequency", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var chart analytics.Chart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	require.Equal(t, []string{"SQL Injection", "XSS", "DDoS", "Phishing", "Brute Force"}, chart.Labels)
	require.Equal(t, []int{0, 1, 0, 0, 1}, chart.Datasets[0].Data)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestHandler_GeolocateIP(t *testing.T) {
	h, _ := newTestHandler(t)
	h.SetGeo(stubResolver{"1.1.1.1": {Country: "Australia", CountryCode: "AU"}})

	tests := []struct {
		ip         string
		wantStatus int
	}{
		{"1.1.1.1", http.StatusOK},
		{"9.9.9.9", http.StatusNotFound},
		{"bad", http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.ip, func(t *testing.T) {
			form := url.Values{"ip_address": {tt.ip}}
			req := httptest.NewRequest(http.MethodPost, "/geolocate_ip", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			w := httptest.NewRecorder()
			h.HandleGeolocateIP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// TestHandler_Pages проверяет отрисовку HTML-страниц.
func TestHandler_Pages(t *testing.T) {
	h, _ := newTestHandler(t,
		models.AttackEvent{Timestamp: testNow, SourceAddress: "103.27.70.100", Category: models.DDoS, Details: "<script>"},
	)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"index", h.HandleIndex, "103.27.70.100"},
		{"logs", h.HandleLogs, "2026-06-01 12:00:00"},
		{"analytics", h.HandleAnalytics, "/api/attack_frequency"},
		{"settings", h.HandleSettings, "/save-alert-settings"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, w.Code)
			require.Contains(t, w.Body.String(), tt.want)
			require.NotContains(t, w.Body.String(), "<td><script></td>")
		})
	}
}

func TestHandler_Ping(t *testing.T) {
	h, _ := newTestHandler(t)
	w := httptest.NewRecorder()
	h.HandlePing(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}
