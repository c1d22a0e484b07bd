package repository

import (
	"context"
	"fmt"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres реализует EventStore поверх таблицы attack_logs.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres оборачивает пул соединений. Пул должен быть уже подключён
// и мигрирован (см. db.InitDB).
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Close закрывает пул соединений.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping проверяет соединение с базой с таймаутом 2 секунды.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Append вставляет событие и заполняет event.ID.
func (p *Postgres) Append(ctx context.Context, event *models.AttackEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	const stmt = `
		INSERT INTO attack_logs (timestamp, ip_address, attack_type, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := p.pool.QueryRow(ctx, stmt,
		event.Timestamp, event.SourceAddress, event.Category, event.Details,
	).Scan(&event.ID); err != nil {
		return fmt.Errorf("failed to insert attack: %w", err)
	}
	return nil
}

// Recent возвращает последние события, новые первыми.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]models.AttackEvent, error) {
	query := `
		SELECT id, timestamp, ip_address, attack_type, details
		FROM attack_logs
		ORDER BY timestamp DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attacks: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AttackEvent, error) {
		var e models.AttackEvent
		err := row.Scan(&e.ID, &e.Timestamp, &e.SourceAddress, &e.Category, &e.Details)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan attacks: %w", err)
	}
	return events, nil
}

// Count возвращает общее число событий.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attack_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attacks: %w", err)
	}
	return n, nil
}

// CountSince возвращает число событий не старше since.
func (p *Postgres) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attack_logs WHERE timestamp >= $1`, since,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recent attacks: %w", err)
	}
	return n, nil
}

// CountByCategory группирует события по категории.
func (p *Postgres) CountByCategory(ctx context.Context) (map[string]int, error) {
	return collectCounts(ctx, p.pool,
		`SELECT attack_type, COUNT(*) FROM attack_logs GROUP BY attack_type`)
}

// CountBySource группирует события по адресу источника.
func (p *Postgres) CountBySource(ctx context.Context) (map[string]int, error) {
	return collectCounts(ctx, p.pool,
		`SELECT ip_address, COUNT(*) FROM attack_logs GROUP BY ip_address`)
}

// CountByMonth группирует события года year по месяцам в UTC.
func (p *Postgres) CountByMonth(ctx context.Context, year int) (map[time.Month]int, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := p.pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM timestamp AT TIME ZONE 'UTC')::int AS month, COUNT(*)
		FROM attack_logs
		WHERE timestamp >= $1 AND timestamp < $2
		GROUP BY month`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly attacks: %w", err)
	}
	defer rows.Close()

	out := make(map[time.Month]int)
	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly attacks: %w", err)
		}
		out[time.Month(month)] = count
	}
	return out, rows.Err()
}

// DeleteByCategory удаляет все события категории в одной транзакции.
func (p *Postgres) DeleteByCategory(ctx context.Context, category string) (int64, error) {
	if category == "" {
		return 0, ErrEmptyCategory
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM attack_logs WHERE attack_type = $1`, category)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %q attacks: %w", category, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectCounts(ctx context.Context, pool *pgxpool.Pool, query string) (map[string]int, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}
		out[key] = count
	}
	return out, rows.Err()
}
