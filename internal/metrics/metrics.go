// Package metrics объявляет Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttacksGenerated - число сохранённых смоделированных атак по категориям.
	AttacksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_attacks_generated_total",
			Help: "Simulated attacks persisted, by category",
		},
		[]string{"category"},
	)

	// PersistFailures - число тиков генератора, прерванных ошибкой записи.
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "honeypot_attack_persist_failures_total",
			Help: "Generator ticks aborted by a store error",
		},
	)

	// AlertDispatches - результаты отправки оповещений.
	AlertDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_alert_dispatches_total",
			Help: "Alert notifications by result (sent, failed, dropped)",
		},
		[]string{"result"},
	)

	// GeoLookups - результаты пакетных запросов геолокации.
	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_geo_lookups_total",
			Help: "Batch geolocation calls by result",
		},
		[]string{"result"},
	)

	// ViewersConnected - число подключённых WebSocket-клиентов.
	ViewersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "honeypot_viewers_connected",
			Help: "Currently connected dashboard viewers",
		},
	)
)
