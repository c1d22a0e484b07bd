package service

import (
	"net/http"

	"github.com/RoGogDBD/honeypot-dashboard/internal/config"
	"github.com/RoGogDBD/honeypot-dashboard/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter создает и настраивает HTTP-роутер панели мониторинга.
//
// Параметры:
//   - h: обработчик страниц и API (handler.Handler)
//   - ws: обработчик WebSocket-подключений; nil отключает /ws
//   - logger: логгер для логирования запросов
//
// Возвращает:
//   - *chi.Mux: настроенный роутер
func NewRouter(h *handler.Handler, ws http.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)         // Добавляет уникальный идентификатор запроса
	r.Use(middleware.RealIP)            // Определяет реальный IP клиента
	r.Use(config.RequestLogger(logger)) // Логирует запросы с помощью zap
	r.Use(middleware.Recoverer)         // Восстанавливает после паники
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Сжатие ломает upgrade, поэтому /ws регистрируется вне группы.
	if ws != nil {
		r.Get("/ws", ws.ServeHTTP)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5)) // Сжимает ответы

		// Страницы
		r.Get("/", h.HandleIndex)
		r.Get("/logs", h.HandleLogs)
		r.Get("/analytics", h.HandleAnalytics)
		r.Get("/settings", h.HandleSettings)

		// Настройки оповещений
		r.Get("/get-alert-settings", h.HandleGetAlertSettings)
		r.Post("/save-alert-settings", h.HandleSaveAlertSettings)

		// API графиков и статистики
		r.Route("/api", func(r chi.Router) {
			r.Get("/attack_frequency", h.HandleAttackFrequency)
			r.Get("/attack_trend", h.HandleAttackTrend)
			r.Get("/attacks_by_country", h.HandleAttacksByCountry)
			r.Get("/attack_locations", h.HandleAttackLocations)
			r.Get("/recent", h.HandleRecent)
			r.Get("/summary", h.HandleSummary)
		})

		r.Post("/simulate_log", h.HandleSimulateLog)
		r.Post("/geolocate_ip", h.HandleGeolocateIP)
		r.Get("/ping", h.HandlePing)
	})

	return r
}
