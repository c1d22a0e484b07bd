package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
)

// ErrEmptyCategory возвращается при попытке удалить события без указания категории.
var ErrEmptyCategory = errors.New("category must not be empty")

// EventStore определяет интерфейс хранилища событий атак.
//
// Хранилище только добавляет события и отдаёт агрегаты, события не изменяются.
// Реализации должны быть безопасны для одновременной записи и чтения.
type EventStore interface {
	// Append сохраняет событие и назначает ему ID. Нулевой Timestamp заменяется текущим временем.
	Append(ctx context.Context, event *models.AttackEvent) error
	// Recent возвращает до limit последних событий, новые первыми. limit <= 0 - все события.
	Recent(ctx context.Context, limit int) ([]models.AttackEvent, error)
	// Count возвращает общее число событий.
	Count(ctx context.Context) (int, error)
	// CountSince возвращает число событий с Timestamp не раньше since.
	CountSince(ctx context.Context, since time.Time) (int, error)
	// CountByCategory группирует события по категории.
	CountByCategory(ctx context.Context) (map[string]int, error)
	// CountByMonth группирует события года year (UTC) по месяцам.
	CountByMonth(ctx context.Context, year int) (map[time.Month]int, error)
	// CountBySource группирует события по адресу источника.
	CountBySource(ctx context.Context) (map[string]int, error)
	// DeleteByCategory удаляет все события категории и возвращает их число.
	DeleteByCategory(ctx context.Context, category string) (int64, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// MemStorage реализует EventStore в памяти.
//
// Используется, когда DSN базы данных не задан, и в тестах.
type MemStorage struct {
	events []models.AttackEvent // События в порядке добавления
	nextID int64                // Следующий ID
	mu     sync.RWMutex         // Мьютекс для конкурентного доступа
}

// NewMemStorage создаёт пустое хранилище в памяти.
func NewMemStorage() *MemStorage {
	return &MemStorage{nextID: 1}
}

// Append сохраняет копию события и заполняет event.ID.
func (s *MemStorage) Append(ctx context.Context, event *models.AttackEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.ID = s.nextID
	s.nextID++
	s.events = append(s.events, *event)
	return nil
}

// Recent возвращает последние события, новые первыми.
func (s *MemStorage) Recent(ctx context.Context, limit int) ([]models.AttackEvent, error) {
	s.mu.RLock()
	out := make([]models.AttackEvent, len(s.events))
	copy(out, s.events)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count возвращает общее число событий.
func (s *MemStorage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

// CountSince возвращает число событий не старше since.
func (s *MemStorage) CountSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.events {
		if !e.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

// CountByCategory группирует события по категории.
func (s *MemStorage) CountByCategory(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for _, e := range s.events {
		out[e.Category]++
	}
	return out, nil
}

// CountByMonth группирует события года year по месяцам в UTC.
func (s *MemStorage) CountByMonth(ctx context.Context, year int) (map[time.Month]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[time.Month]int)
	for _, e := range s.events {
		ts := e.Timestamp.UTC()
		if ts.Year() == year {
			out[ts.Month()]++
		}
	}
	return out, nil
}

// CountBySource группирует события по адресу источника.
func (s *MemStorage) CountBySource(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for _, e := range s.events {
		out[e.SourceAddress]++
	}
	return out, nil
}

// DeleteByCategory удаляет все события категории.
func (s *MemStorage) DeleteByCategory(ctx context.Context, category string) (int64, error) {
	if category == "" {
		return 0, ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.Category == category {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

// Ping всегда успешен для хранилища в памяти.
func (s *MemStorage) Ping(ctx context.Context) error {
	return nil
}
