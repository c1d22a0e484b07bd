// Package schedule запускает задачи с фиксированным интервалом.
package schedule

import (
	"context"
	"time"
)

// TaskTimeout ограничивает один вызов задачи.
const TaskTimeout = 30 * time.Second

// Every вызывает task каждые interval, пока не отменён ctx.
//
// Первый вызов происходит через interval после старта. Задача выполняется
// в той же горутине, поэтому после отмены контекста новые вызовы не
// планируются, а начатый доводится до конца. Задача получает контекст,
// который не отменяется вместе с ctx, но ограничен TaskTimeout.
// Возвращает ctx.Err().
func Every(ctx context.Context, interval time.Duration, task func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			run(ctx, task)
		}
	}
}

func run(ctx context.Context, task func(context.Context)) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), TaskTimeout)
	defer cancel()
	task(taskCtx)
}
