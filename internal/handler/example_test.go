package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/handler"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/internal/repository"
	"go.uber.org/zap"
)

// ExampleHandler_HandleAttackFrequency демонстрирует получение графика атак по категориям.
func ExampleHandler_HandleAttackFrequency() {
	storage := repository.NewMemStorage()
	event := models.AttackEvent{Timestamp: time.Now(), SourceAddress: "103.27.70.100", Category: models.XSS}
	_ = storage.Append(context.Background(), &event)

	h := handler.NewHandler(storage, repository.NewSettingsStore(), models.ActiveCategories(false), zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleAttackFrequency(w, httptest.NewRequest("GET", "/api/attack_frequency", nil))

	resp := w.Result()
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(string(body))
	// Output:
	// {"labels":["SQL Injection","XSS","DDoS","Phishing"],"datasets":[{"data":[0,1,0,0]}]}
}

// ExampleHandler_HandleSaveAlertSettings демонстрирует сохранение настроек оповещений.
//
// Некорректные поля заменяются значениями по умолчанию.
func ExampleHandler_HandleSaveAlertSettings() {
	settings := repository.NewSettingsStore()
	h := handler.NewHandler(repository.NewMemStorage(), settings, models.ActiveCategories(false), zap.NewNop())

	body := `{"is_enabled":true,"recipient_email":"soc@example.com","threshold_count":"many"}`
	w := httptest.NewRecorder()
	h.HandleSaveAlertSettings(w, httptest.NewRequest("POST", "/save-alert-settings", strings.NewReader(body)))

	s := settings.Snapshot()
	fmt.Println(w.Body.String())
	fmt.Println(s.Enabled, s.Recipient, s.ThresholdCount, s.ThresholdMinutes)
	// Output:
	// {"status":"success"}
	// true soc@example.com 20 5
}

// ExampleHandler_HandleGetAlertSettings демонстрирует чтение настроек по умолчанию.
func ExampleHandler_HandleGetAlertSettings() {
	h := handler.NewHandler(repository.NewMemStorage(), repository.NewSettingsStore(), models.AllCategories, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleGetAlertSettings(w, httptest.NewRequest("GET", "/get-alert-settings", nil))

	fmt.Println(w.Body.String())
	// Output:
	// {"is_enabled":false,"recipient_email":"","threshold_count":20,"threshold_minutes":5,"last_alert_time":null}
}
