package geo

import (
	"context"
	"sync"

	"github.com/RoGogDBD/honeypot-dashboard/internal/metrics"
	"go.uber.org/zap"
)

// Cache хранит результаты геолокации в памяти процесса.
//
// Записи не вытесняются и не устаревают. Неудачные запросы не кешируются,
// такие адреса будут запрошены снова при следующем Resolve.
type Cache struct {
	lookuper Lookuper
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]Location
}

// NewCache создаёт пустой кеш поверх lookuper.
func NewCache(lookuper Lookuper, logger *zap.Logger) *Cache {
	return &Cache{
		lookuper: lookuper,
		logger:   logger,
		entries:  make(map[string]Location),
	}
}

// Resolve возвращает известные местоположения для addrs.
//
// Отсутствующие в кеше адреса запрашиваются пакетами по BatchLimit.
// Ошибка пакета пишется в журнал, его адреса остаются неизвестными.
func (c *Cache) Resolve(ctx context.Context, addrs []string) map[string]Location {
	missing := c.missing(addrs)

	for start := 0; start < len(missing); start += BatchLimit {
		end := min(start+BatchLimit, len(missing))
		batch := missing[start:end]

		found, err := c.lookuper.Lookup(ctx, batch)
		if err != nil {
			metrics.GeoLookups.WithLabelValues("failed").Inc()
			c.logger.Warn("geolocation lookup failed", zap.Int("addresses", len(batch)), zap.Error(err))
			continue
		}
		metrics.GeoLookups.WithLabelValues("ok").Inc()
		c.store(found)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Location, len(addrs))
	for _, a := range addrs {
		if loc, ok := c.entries[a]; ok {
			out[a] = loc
		}
	}
	return out
}

// Len возвращает число закешированных адресов.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) missing(addrs []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0)
	for _, a := range addrs {
		if _, ok := c.entries[a]; ok {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (c *Cache) store(found map[string]Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, loc := range found {
		c.entries[addr] = loc
	}
}
