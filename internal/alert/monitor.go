package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/pkg/schedule"
	"go.uber.org/zap"
)

// DefaultCooldown - минимальный интервал между оповещениями.
const DefaultCooldown = 15 * time.Minute

// Counter считает атаки начиная с заданного момента.
type Counter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Settings - хранилище настроек оповещения.
type Settings interface {
	Snapshot() models.AlertSettings
	MarkAlerted(at time.Time)
}

// Monitor периодически сравнивает число недавних атак с порогом.
type Monitor struct {
	counter        Counter
	settings       Settings
	sender         Sender
	logger         *zap.Logger
	cooldown       time.Duration
	stampOnEnqueue bool
	now            func() time.Time

	mu      sync.Mutex
	pending bool
}

// Option настраивает Monitor.
type Option func(*Monitor)

// WithCooldown задаёт интервал между оповещениями.
func WithCooldown(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.cooldown = d
		}
	}
}

// WithStampOnEnqueue записывает время оповещения при постановке в очередь,
// независимо от результата отправки.
func WithStampOnEnqueue(enabled bool) Option {
	return func(m *Monitor) { m.stampOnEnqueue = enabled }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor создаёт монитор.
func NewMonitor(counter Counter, settings Settings, sender Sender, logger *zap.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		counter:  counter,
		settings: settings,
		sender:   sender,
		logger:   logger,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run вызывает Check каждые interval до отмены ctx.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	m.logger.Info("alert monitor started", zap.Duration("interval", interval), zap.Duration("cooldown", m.cooldown))
	return schedule.Every(ctx, interval, func(ctx context.Context) {
		if _, err := m.Check(ctx); err != nil {
			m.logger.Warn("alert check failed", zap.Error(err))
		}
	})
}

// Check выполняет одну проверку. Возвращает true, если оповещение
// поставлено в очередь.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	s := m.settings.Snapshot()
	if !s.Enabled || s.Recipient == "" {
		return false, nil
	}

	now := m.now()
	if !s.LastAlertTime.IsZero() && now.Sub(s.LastAlertTime) < m.cooldown {
		return false, nil
	}

	m.mu.Lock()
	if m.pending {
		m.mu.Unlock()
		return false, nil
	}
	m.pending = true
	m.mu.Unlock()

	count, err := m.counter.CountSince(ctx, now.Add(-s.Window()))
	if err != nil {
		m.release()
		return false, fmt.Errorf("failed to count recent attacks: %w", err)
	}
	if count < s.ThresholdCount {
		m.release()
		return false, nil
	}

	n := Notification{
		Recipient:        s.Recipient,
		Count:            count,
		ThresholdCount:   s.ThresholdCount,
		ThresholdMinutes: s.ThresholdMinutes,
		At:               now,
	}
	if err := m.sender.Enqueue(n, func(err error) { m.finish(now, err) }); err != nil {
		m.release()
		return false, err
	}
	if m.stampOnEnqueue {
		m.settings.MarkAlerted(now)
	}
	m.logger.Info("alert threshold exceeded",
		zap.Int("count", count),
		zap.Int("threshold", s.ThresholdCount),
		zap.Int("minutes", s.ThresholdMinutes),
	)
	return true, nil
}

// Pending сообщает, ожидает ли оповещение отправки.
func (m *Monitor) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *Monitor) release() {
	m.mu.Lock()
	m.pending = false
	m.mu.Unlock()
}

// finish получает результат отправки от диспетчера.
func (m *Monitor) finish(at time.Time, err error) {
	if err == nil && !m.stampOnEnqueue {
		m.settings.MarkAlerted(at)
	}
	m.release()
}
