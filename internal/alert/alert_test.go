package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSender запоминает оповещения и сразу завершает их с result.
// Если hold == true, завершение откладывается до вызова complete.
type recordingSender struct {
	sent    []Notification
	result  error
	hold    bool
	waiting []func(error)
}

func (s *recordingSender) Enqueue(n Notification, done func(error)) error {
	s.sent = append(s.sent, n)
	if s.hold {
		s.waiting = append(s.waiting, done)
		return nil
	}
	done(s.result)
	return nil
}

func (s *recordingSender) complete(err error) {
	for _, done := range s.waiting {
		done(err)
	}
	s.waiting = nil
}

// newMonitorFixture создаёт хранилище с count атаками за последнюю минуту
// и включёнными оповещениями с порогом 20 атак за 5 минут.
func newMonitorFixture(t *testing.T, now time.Time, count int) (*repository.MemStorage, *repository.SettingsStore) {
	t.Helper()
	store := repository.NewMemStorage()
	for i := 0; i < count; i++ {
		ev := models.AttackEvent{Timestamp: now.Add(-time.Minute), Category: models.XSS, SourceAddress: "8.8.8.8"}
		require.NoError(t, store.Append(context.Background(), &ev))
	}
	settings := repository.NewSettingsStore()
	settings.Update(models.AlertSettings{
		Enabled:          true,
		Recipient:        "soc@example.com",
		ThresholdCount:   20,
		ThresholdMinutes: 5,
	})
	return store, settings
}

// TestMonitor_Check проверяет условия отправки оповещения.
func TestMonitor_Check(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		events int
		mutate func(s *repository.SettingsStore)
		want   bool
	}{
		{name: "threshold reached", events: 20, want: true},
		{name: "below threshold", events: 19, want: false},
		{
			name:   "disabled",
			events: 50,
			mutate: func(s *repository.SettingsStore) {
				cur := s.Snapshot()
				cur.Enabled = false
				s.Update(cur)
			},
			want: false,
		},
		{
			name:   "no recipient",
			events: 50,
			mutate: func(s *repository.SettingsStore) {
				cur := s.Snapshot()
				cur.Recipient = ""
				s.Update(cur)
			},
			want: false,
		},
		{
			name:   "inside cooldown",
			events: 50,
			mutate: func(s *repository.SettingsStore) {
				s.MarkAlerted(now.Add(-14 * time.Minute))
			},
			want: false,
		},
		{
			name:   "cooldown elapsed",
			events: 50,
			mutate: func(s *repository.SettingsStore) {
				s.MarkAlerted(now.Add(-15 * time.Minute))
			},
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, settings := newMonitorFixture(t, now, tt.events)
			if tt.mutate != nil {
				tt.mutate(settings)
			}
			sender := &recordingSender{}
			m := NewMonitor(store, settings, sender, zap.NewNop(), WithClock(func() time.Time { return now }))

			got, err := m.Check(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			if tt.want {
				require.Len(t, sender.sent, 1)
				require.Equal(t, "soc@example.com", sender.sent[0].Recipient)
			} else {
				require.Empty(t, sender.sent)
			}
		})
	}
}

// TestMonitor_SingleDispatchPerCooldown проверяет, что повторная проверка
// в пределах cooldown не отправляет второе оповещение.
func TestMonitor_SingleDispatchPerCooldown(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store, settings := newMonitorFixture(t, now, 20)
	sender := &recordingSender{}
	clock := now
	m := NewMonitor(store, settings, sender, zap.NewNop(), WithClock(func() time.Time { return clock }))

	ok, err := m.Check(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, now, settings.Snapshot().LastAlertTime)

	clock = now.Add(time.Minute)
	ok, err = m.Check(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, sender.sent, 1)
}

// TestMonitor_PendingBlocksNewAlerts проверяет, что пока отправка не
// завершена, новые оповещения не ставятся в очередь.
func TestMonitor_PendingBlocksNewAlerts(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store, settings := newMonitorFixture(t, now, 30)
	sender := &recordingSender{hold: true}
	m := NewMonitor(store, settings, sender, zap.NewNop(), WithClock(func() time.Time { return now }))

	ok, err := m.Check(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.Pending())
	require.True(t, settings.Snapshot().LastAlertTime.IsZero())

	ok, err = m.Check(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	sender.complete(nil)
	require.False(t, m.Pending())
	require.Equal(t, now, settings.Snapshot().LastAlertTime)
}

// TestMonitor_SendFailure проверяет обработку ошибки отправки в обоих режимах.
func TestMonitor_SendFailure(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		stampOnEnqueue bool
		wantStamped    bool
		wantSecond     bool
	}{
		{name: "stamp on confirmed send", stampOnEnqueue: false, wantStamped: false, wantSecond: true},
		{name: "stamp on enqueue", stampOnEnqueue: true, wantStamped: true, wantSecond: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, settings := newMonitorFixture(t, now, 25)
			sender := &recordingSender{result: errors.New("smtp unavailable")}
			m := NewMonitor(store, settings, sender, zap.NewNop(),
				WithClock(func() time.Time { return now }),
				WithStampOnEnqueue(tt.stampOnEnqueue),
			)

			ok, err := m.Check(context.Background())
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tt.wantStamped, !settings.Snapshot().LastAlertTime.IsZero())

			ok, err = m.Check(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantSecond, ok)
		})
	}
}

// fullSender всегда отвечает ErrQueueFull.
type fullSender struct{}

func (fullSender) Enqueue(Notification, func(error)) error { return ErrQueueFull }

func TestMonitor_QueueFull(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store, settings := newMonitorFixture(t, now, 25)
	m := NewMonitor(store, settings, fullSender{}, zap.NewNop(), WithClock(func() time.Time { return now }))

	ok, err := m.Check(context.Background())
	require.ErrorIs(t, err, ErrQueueFull)
	require.False(t, ok)
	require.False(t, m.Pending())
}

// stubMailer запоминает отправленные оповещения.
type stubMailer struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (s *stubMailer) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

// TestDispatcher_Run проверяет доставку и передачу результата.
func TestDispatcher_Run(t *testing.T) {
	tests := []struct {
		name    string
		mailErr error
	}{
		{name: "sent"},
		{name: "failed", mailErr: errors.New("connection refused")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mailer := &stubMailer{err: tt.mailErr}
			d := NewDispatcher(mailer, 1, zap.NewNop())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			errCh := make(chan error, 1)
			go func() { errCh <- d.Run(ctx) }()

			results := make(chan error, 1)
			require.NoError(t, d.Enqueue(Notification{Recipient: "soc@example.com"}, func(err error) { results <- err }))

			select {
			case err := <-results:
				require.Equal(t, tt.mailErr, err)
			case <-time.After(2 * time.Second):
				t.Fatal("dispatcher did not report a result")
			}

			cancel()
			require.ErrorIs(t, <-errCh, context.Canceled)
			require.Len(t, mailer.sent, 1)
		})
	}
}

// TestDispatcher_QueueFull проверяет, что Enqueue не блокируется.
func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(&stubMailer{}, 1, zap.NewNop())

	require.NoError(t, d.Enqueue(Notification{}, nil))
	require.ErrorIs(t, d.Enqueue(Notification{}, nil), ErrQueueFull)
}

// TestDispatcher_RunDrainsOnStop проверяет, что остановка завершает
// неотправленные оповещения и снимает флаг ожидания монитора.
func TestDispatcher_RunDrainsOnStop(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store, settings := newMonitorFixture(t, now, 25)
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, 2, zap.NewNop())
	m := NewMonitor(store, settings, d, zap.NewNop(), WithClock(func() time.Time { return now }))

	ok, err := m.Check(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.Pending())

	results := make(chan error, 1)
	require.NoError(t, d.Enqueue(Notification{Recipient: "b@example.com"}, func(err error) { results <- err }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, d.Run(ctx), context.Canceled)

	require.ErrorIs(t, <-results, context.Canceled)
	require.False(t, m.Pending())
	require.True(t, settings.Snapshot().LastAlertTime.IsZero())
	require.Empty(t, mailer.sent)
	require.ErrorIs(t, d.Enqueue(Notification{}, nil), ErrDispatcherStopped)
}

// TestSMTPMailer_Disabled проверяет отказ без настроенного сервера.
func TestSMTPMailer_Disabled(t *testing.T) {
	err := NewSMTPMailer("", 587, "", "", "").Send(context.Background(), Notification{Recipient: "soc@example.com"})
	require.ErrorIs(t, err, ErrMailDisabled)
}

func TestNotification_Text(t *testing.T) {
	n := Notification{Count: 21, ThresholdCount: 20, ThresholdMinutes: 5, At: time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)}
	require.Equal(t, "Honeypot alert: 21 attacks in the last 5 minutes", n.Subject())
	require.Contains(t, n.Body(), "2026-06-01 12:00:00 UTC")
}
