// Package simulator генерирует смоделированные атаки.
package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"net/netip"
	"sync"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/metrics"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/pkg/schedule"
	"go.uber.org/zap"
)

// notableChance - вероятность выбрать адрес из NotableAddresses.
const notableChance = 0.2

// NotableAddresses - повторяющиеся источники, которые клиенты должны видеть регулярно.
var NotableAddresses = []string{"103.27.70.100", "45.155.205.233", "185.220.101.4"}

var (
	commonUsernames = []string{"admin", "root", "user", "test", "guest"}
	commonPasswords = []string{"password", "123456", "admin", "qwerty", "12345"}
)

// Store - хранилище, в которое генератор пишет события.
type Store interface {
	Append(ctx context.Context, event *models.AttackEvent) error
}

// Publisher рассылает сохранённые события клиентам.
type Publisher interface {
	Notify(msg models.AttackMessage)
}

// Generator создаёт одно событие за тик, сохраняет его и рассылает.
type Generator struct {
	store      Store
	publisher  Publisher
	categories []string
	logger     *zap.Logger
	now        func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator создаёт генератор.
//
// categories - набор категорий сборки, rng - источник случайности
// (nil - засеять текущим временем).
func NewGenerator(store Store, publisher Publisher, categories []string, rng *rand.Rand, logger *zap.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		store:      store,
		publisher:  publisher,
		categories: categories,
		logger:     logger,
		now:        time.Now,
		rng:        rng,
	}
}

// Run вызывает Tick каждые interval до отмены ctx.
func (g *Generator) Run(ctx context.Context, interval time.Duration) error {
	g.logger.Info("attack generator started", zap.Duration("interval", interval))
	return schedule.Every(ctx, interval, func(ctx context.Context) {
		_, _ = g.Tick(ctx)
	})
}

// Tick создаёт и сохраняет одно событие, затем рассылает его.
//
// При ошибке записи рассылки нет, ошибка возвращается и пишется в журнал.
func (g *Generator) Tick(ctx context.Context) (*models.AttackEvent, error) {
	event := g.Next()
	if err := g.store.Append(ctx, &event); err != nil {
		metrics.PersistFailures.Inc()
		g.logger.Error("failed to persist attack", zap.Error(err), zap.String("category", event.Category))
		return nil, fmt.Errorf("persist attack: %w", err)
	}

	metrics.AttacksGenerated.WithLabelValues(event.Category).Inc()
	g.publisher.Notify(event.Message())
	g.logger.Info("attack logged",
		zap.Int64("id", event.ID),
		zap.String("category", event.Category),
		zap.String("source", event.SourceAddress),
	)
	return &event, nil
}

// Next создаёт событие без сохранения.
func (g *Generator) Next() models.AttackEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	category := g.categories[g.rng.Intn(len(g.categories))]
	details := fmt.Sprintf("Simulated %s attack.", category)
	if category == models.BruteForce {
		username := commonUsernames[g.rng.Intn(len(commonUsernames))]
		password := commonPasswords[g.rng.Intn(len(commonPasswords))]
		details = fmt.Sprintf("Failed login attempt with username: '%s' and password: '%s'", username, password)
	}

	return models.AttackEvent{
		Timestamp:     g.now(),
		SourceAddress: g.address(),
		Category:      category,
		Details:       details,
	}
}

// address возвращает адрес источника. Вызывается под g.mu.
func (g *Generator) address() string {
	if g.rng.Float64() < notableChance {
		return NotableAddresses[g.rng.Intn(len(NotableAddresses))]
	}
	for {
		v := g.rng.Uint32()
		addr := netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		if IsPublic(addr) {
			return addr.String()
		}
	}
}

// IsPublic сообщает, похож ли адрес на публичный.
//
// Отбрасываются 0/8, loopback, link-local, частные сети RFC 1918
// и всё, начиная с 224.0.0.0 (multicast и зарезервированные).
func IsPublic(addr netip.Addr) bool {
	if !addr.Is4() {
		return false
	}
	b := addr.As4()
	switch {
	case b[0] == 0, b[0] >= 224:
		return false
	case addr.IsLoopback(), addr.IsLinkLocalUnicast(), addr.IsPrivate():
		return false
	}
	return true
}
