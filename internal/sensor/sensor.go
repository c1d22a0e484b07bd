// Package sensor собирает показатели хоста, на котором работает ловушка.
package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats - снимок нагрузки хоста.
type Stats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// Reader возвращает снимок показателей хоста.
type Reader interface {
	Read(ctx context.Context) (Stats, error)
}

// Host читает показатели через gopsutil.
type Host struct{}

// Read собирает загрузку CPU за последние 200 мс, занятость памяти и аптайм.
func (Host) Read(ctx context.Context) (Stats, error) {
	percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read cpu: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read memory: %w", err)
	}
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read uptime: %w", err)
	}

	var stats Stats
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	stats.MemoryPercent = vm.UsedPercent
	stats.UptimeSeconds = uptime
	return stats, nil
}
