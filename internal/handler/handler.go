// Package handler содержит HTTP-обработчики панели мониторинга.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/geo"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/internal/repository"
	"github.com/RoGogDBD/honeypot-dashboard/internal/sensor"
	"go.uber.org/zap"
)

// Resolver определяет местоположение адресов.
type Resolver interface {
	Resolve(ctx context.Context, addrs []string) map[string]geo.Location
}

// ViewerCounter сообщает число подключённых панелей.
type ViewerCounter interface {
	ClientCount() int
}

// Publisher рассылает сохранённые атаки.
type Publisher interface {
	Notify(msg models.AttackMessage)
}

// Handler обслуживает страницы и JSON API.
//
// Обязательные зависимости передаются в NewHandler, остальные подключаются
// сеттерами. Без них соответствующие поля ответа остаются пустыми.
type Handler struct {
	store      repository.EventStore
	settings   *repository.SettingsStore
	categories []string
	logger     *zap.Logger
	now        func() time.Time

	geo       Resolver
	viewers   ViewerCounter
	sensor    sensor.Reader
	publisher Publisher
}

// NewHandler создаёт обработчик.
//
// Параметры:
//   - store: хранилище событий
//   - settings: настройки оповещений
//   - categories: активные категории атак в порядке отображения
//   - logger: журнал ошибок
func NewHandler(store repository.EventStore, settings *repository.SettingsStore, categories []string, logger *zap.Logger) *Handler {
	return &Handler{
		store:      store,
		settings:   settings,
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
}

// SetGeo подключает кеш геолокации.
func (h *Handler) SetGeo(r Resolver) { h.geo = r }

// SetViewers подключает счётчик WebSocket-клиентов.
func (h *Handler) SetViewers(v ViewerCounter) { h.viewers = v }

// SetSensor подключает сбор показателей хоста.
func (h *Handler) SetSensor(s sensor.Reader) { h.sensor = s }

// SetPublisher подключает рассылку для атак, добавленных вручную.
func (h *Handler) SetPublisher(p Publisher) { h.publisher = p }

// HandlePing проверяет доступность хранилища.
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		http.Error(w, "storage not reachable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
