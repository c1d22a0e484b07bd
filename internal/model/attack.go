package models

import "time"

// Категории атак, которые умеет генерировать симулятор.
const (
	SQLInjection = "SQL Injection"
	XSS          = "XSS"
	BruteForce   = "Brute Force"
	DDoS         = "DDoS"
	Phishing     = "Phishing"
)

// TimestampLayout - формат времени в push-сообщениях и HTML-страницах.
const TimestampLayout = "2006-01-02 15:04:05"

// AllCategories задаёт стабильный порядок меток в графиках.
var AllCategories = []string{SQLInjection, XSS, BruteForce, DDoS, Phishing}

// ActiveCategories возвращает набор категорий текущей сборки.
//
// Brute Force выведена из эксплуатации и включается только явно.
func ActiveCategories(withBruteForce bool) []string {
	out := make([]string, 0, len(AllCategories))
	for _, c := range AllCategories {
		if c == BruteForce && !withBruteForce {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AttackEvent представляет одну смоделированную атаку.
//
// После записи в хранилище событие не изменяется, его можно только удалить
// вместе со всеми событиями той же категории.
//
// Поля:
//   - ID: идентификатор, назначается хранилищем
//   - Timestamp: время создания события
//   - SourceAddress: IPv4-адрес источника
//   - Category: категория атаки
//   - Details: текстовое описание
type AttackEvent struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SourceAddress string    `json:"source_address"`
	Category      string    `json:"category"`
	Details       string    `json:"details"`
}

// AttackMessage - компактное представление события для рассылки клиентам.
type AttackMessage struct {
	Timestamp     string `json:"timestamp"`
	SourceAddress string `json:"source_address"`
	Category      string `json:"category"`
}

// Message формирует AttackMessage из события.
func (e AttackEvent) Message() AttackMessage {
	return AttackMessage{
		Timestamp:     e.Timestamp.Format(TimestampLayout),
		SourceAddress: e.SourceAddress,
		Category:      e.Category,
	}
}
