package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// JournalObserver дописывает каждую атаку строкой JSON в файл.
type JournalObserver struct {
	filePath string
	mu       sync.Mutex
}

// NewJournalObserver создаёт наблюдателя и каталог для файла журнала.
func NewJournalObserver(filePath string) (*JournalObserver, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &JournalObserver{filePath: filePath}, nil
}

// OnAttack дописывает сообщение в журнал.
func (j *JournalObserver) OnAttack(msg models.AttackMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal attack: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write attack: %w", err)
	}
	return nil
}

// WebhookObserver отправляет атаки POST-запросом на внешний адрес.
type WebhookObserver struct {
	client *resty.Client
	url    string
}

// NewWebhookObserver создаёт наблюдателя с таймаутом 5 секунд и без повторов.
func NewWebhookObserver(url string) *WebhookObserver {
	return &WebhookObserver{
		client: resty.New().SetTimeout(5 * time.Second),
		url:    url,
	}
}

// OnAttack отправляет сообщение. Ответ не 200/201 считается ошибкой.
func (w *WebhookObserver) OnAttack(msg models.AttackMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to send attack to webhook: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// AttackNotifier рассылает сохранённые атаки всем наблюдателям.
//
// Ошибка одного наблюдателя пишется в журнал и не мешает остальным.
type AttackNotifier struct {
	observers []models.AttackObserver
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewAttackNotifier создаёт рассыльщика без наблюдателей.
func NewAttackNotifier(logger *zap.Logger) *AttackNotifier {
	return &AttackNotifier{
		observers: make([]models.AttackObserver, 0),
		logger:    logger,
	}
}

// Attach добавляет наблюдателя.
func (a *AttackNotifier) Attach(observer models.AttackObserver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, observer)
}

// Detach удаляет наблюдателя.
func (a *AttackNotifier) Detach(observer models.AttackObserver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, obs := range a.observers {
		if obs == observer {
			a.observers = append(a.observers[:i], a.observers[i+1:]...)
			break
		}
	}
}

// Notify передаёт сообщение каждому наблюдателю по очереди.
func (a *AttackNotifier) Notify(msg models.AttackMessage) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, observer := range a.observers {
		if err := observer.OnAttack(msg); err != nil {
			a.logger.Warn("attack observer failed", zap.Error(err))
		}
	}
}

// HasObservers сообщает, есть ли подписанные наблюдатели.
func (a *AttackNotifier) HasObservers() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.observers) > 0
}
