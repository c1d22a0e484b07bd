// Команда purge удаляет из базы все атаки заданной категории.
//
// По умолчанию удаляются записи выведенной из эксплуатации категории
// Brute Force.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RoGogDBD/honeypot-dashboard/internal/config"
	"github.com/RoGogDBD/honeypot-dashboard/internal/config/db"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/internal/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// EnvPurgeCategory - переменная окружения с категорией для удаления.
const EnvPurgeCategory = "PURGE_CATEGORY"

// Deleter удаляет события категории.
type Deleter interface {
	DeleteByCategory(ctx context.Context, category string) (int64, error)
}

type options struct {
	dsn      string
	category string
	logLevel string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("purge failed: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if opts.dsn == "" {
		return fmt.Errorf("database DSN is required (-%s or %s)", config.FlagDatabaseDSN, config.EnvDatabaseDSN)
	}

	logger, err := config.Initialize(opts.logLevel, "")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.InitDB(ctx, opts.dsn, logger)
	if err != nil {
		return err
	}
	store := repository.NewPostgres(pool)
	defer store.Close()

	_, err = purge(ctx, store, opts.category, out, logger)
	return err
}

// parseOptions разбирает флаги, переменные окружения имеют приоритет.
func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.dsn, config.FlagDatabaseDSN, "", "PostgreSQL DSN")
	fs.StringVar(&opts.category, "c", models.BruteForce, "Category to delete")
	fs.StringVar(&opts.logLevel, config.FlagLogLevel, "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if v := config.EnvString(config.EnvDatabaseDSN); v != "" {
		opts.dsn = v
	}
	if v := config.EnvString(EnvPurgeCategory); v != "" {
		opts.category = v
	}
	if v := config.EnvString(config.EnvLogLevel); v != "" {
		opts.logLevel = v
	}
	return opts, nil
}

// purge удаляет события категории и печатает их число.
// Временные ошибки соединения повторяются.
func purge(ctx context.Context, store Deleter, category string, out io.Writer, logger *zap.Logger) (int64, error) {
	var deleted int64
	err := config.RetryWithBackoff(ctx, func() error {
		n, err := store.DeleteByCategory(ctx, category)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete %q attacks: %w", category, err)
	}

	logger.Info("attacks purged", zap.String("category", category), zap.Int64("deleted", deleted))
	_, err = fmt.Fprintf(out, "Deleted %d '%s' records.\n", deleted, category)
	return deleted, err
}
