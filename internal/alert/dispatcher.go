package alert

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultQueueSize - ёмкость очереди диспетчера.
	DefaultQueueSize = 4
	sendTimeout      = 30 * time.Second
)

var (
	// ErrQueueFull возвращается, если очередь диспетчера заполнена.
	ErrQueueFull = errors.New("alert queue is full")
	// ErrDispatcherStopped возвращается после остановки диспетчера.
	ErrDispatcherStopped = errors.New("alert dispatcher is stopped")
)

// Sender принимает оповещение к отправке без блокировки.
// done вызывается с результатом отправки ровно один раз.
type Sender interface {
	Enqueue(n Notification, done func(error)) error
}

type job struct {
	n    Notification
	done func(error)
}

// Dispatcher отправляет оповещения в отдельной горутине.
// Неудачные отправки не повторяются.
type Dispatcher struct {
	mailer Mailer
	queue  chan job
	logger *zap.Logger

	mu      sync.Mutex
	stopped bool
}

// NewDispatcher создаёт диспетчер с очередью размера size.
func NewDispatcher(mailer Mailer, size int, logger *zap.Logger) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		mailer: mailer,
		queue:  make(chan job, size),
		logger: logger,
	}
}

// Enqueue ставит оповещение в очередь.
func (d *Dispatcher) Enqueue(n Notification, done func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- job{n: n, done: done}:
		return nil
	default:
		metrics.AlertDispatches.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Run обрабатывает очередь до отмены ctx.
// При остановке неотправленные оповещения завершаются с ошибкой ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx.Err())
			return ctx.Err()
		case j := <-d.queue:
			if err := ctx.Err(); err != nil {
				d.drop(j, err)
				continue
			}
			d.send(ctx, j)
		}
	}
}

func (d *Dispatcher) drain(err error) {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	for {
		select {
		case j := <-d.queue:
			d.drop(j, err)
		default:
			return
		}
	}
}

func (d *Dispatcher) drop(j job, err error) {
	metrics.AlertDispatches.WithLabelValues("dropped").Inc()
	d.logger.Warn("alert dropped on shutdown", zap.String("recipient", j.n.Recipient))
	if j.done != nil {
		j.done(err)
	}
}

func (d *Dispatcher) send(ctx context.Context, j job) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := d.mailer.Send(sendCtx, j.n)
	if err != nil {
		metrics.AlertDispatches.WithLabelValues("failed").Inc()
		d.logger.Error("failed to send alert", zap.String("recipient", j.n.Recipient), zap.Error(err))
	} else {
		metrics.AlertDispatches.WithLabelValues("sent").Inc()
		d.logger.Info("alert sent", zap.String("recipient", j.n.Recipient), zap.Int("count", j.n.Count))
	}
	if j.done != nil {
		j.done(err)
	}
}
