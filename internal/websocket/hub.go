// Package websocket рассылает новые атаки подключённым панелям мониторинга.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/RoGogDBD/honeypot-dashboard/internal/metrics"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"go.uber.org/zap"
)

// EventNewAttack - имя события с новой атакой.
const EventNewAttack = "new_attack"

var (
	// ErrBroadcastFull возвращается, если очередь рассылки заполнена.
	ErrBroadcastFull = errors.New("broadcast queue is full")
	// ErrHubStopped возвращается при регистрации после остановки хаба.
	ErrHubStopped = errors.New("websocket hub is stopped")
)

// Envelope - формат сообщения для клиентов.
type Envelope struct {
	Event string               `json:"event"`
	Data  models.AttackMessage `json:"data"`
}

// Hub хранит подключённых клиентов и рассылает им сообщения.
//
// Доставка без подтверждений: клиент с переполненным буфером отключается
// и должен заново загрузить историю по HTTP.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewHub создаёт хаб. Рассылка начинается после вызова Run.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию и рассылку до отмены ctx.
// При остановке все клиенты отключаются.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.closeAll()
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ViewersConnected.Set(float64(n))
			h.logger.Info("viewer connected", zap.String("client", client.id), zap.Int("viewers", n))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("viewer dropped: send buffer full", zap.String("client", client.id))
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ViewersConnected.Set(float64(n))
		}
	}
}

// Register добавляет клиента. После остановки хаба возвращает ErrHubStopped.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister удаляет клиента. Повторный вызов безопасен.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		h.remove(c)
	}
}

// OnAttack ставит сообщение о новой атаке в очередь рассылки без блокировки.
func (h *Hub) OnAttack(msg models.AttackMessage) error {
	data, err := json.Marshal(Envelope{Event: EventNewAttack, Data: msg})
	if err != nil {
		return fmt.Errorf("failed to marshal attack message: %w", err)
	}
	select {
	case h.broadcast <- data:
		return nil
	default:
		return ErrBroadcastFull
	}
}

// ClientCount возвращает число подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ViewersConnected.Set(float64(n))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.ViewersConnected.Set(0)
}
