package repository

import (
	"sync"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
)

// SettingsStore хранит единственный экземпляр настроек оповещения.
//
// Читатели получают копию. Обновления работают по правилу
// «последняя запись побеждает».
type SettingsStore struct {
	settings models.AlertSettings
	mu       sync.RWMutex
}

// NewSettingsStore создаёт хранилище с настройками по умолчанию.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: models.DefaultAlertSettings()}
}

// Snapshot возвращает копию текущих настроек.
func (s *SettingsStore) Snapshot() models.AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update заменяет пользовательские поля настроек.
// Время последнего оповещения сохраняется.
func (s *SettingsStore) Update(next models.AlertSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next.LastAlertTime = s.settings.LastAlertTime
	s.settings = next
}

// MarkAlerted записывает время отправленного оповещения.
func (s *SettingsStore) MarkAlerted(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.LastAlertTime = at
}
