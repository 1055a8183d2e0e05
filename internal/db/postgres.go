package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/logger"
)

// PoolOptions задаёт параметры пула соединений.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 50
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 10
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 5 * time.Minute
	}
	return o
}

// NewPostgres создаёт подключение к PostgreSQL с заданным DSN.
func NewPostgres(ctx context.Context, dsn string, opts PoolOptions) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	opts = opts.withDefaults()
	conn.SetMaxOpenConns(opts.MaxOpenConns)
	conn.SetMaxIdleConns(opts.MaxIdleConns)
	conn.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return conn, nil
}

// RunMigrations применяет ещё не выполненные up-миграции из fsys.
// Файлы именуются как NNN_name.up.sql и NNN_name.down.sql.
func RunMigrations(ctx context.Context, conn *sqlx.DB, fsys fs.FS) error {
	m, err := newMigrator(ctx, conn, fsys)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Log.WithFields(logrus.Fields{
				"source_error": srcErr,
				"db_error":     dbErr,
			}).Warn("postgres: ошибка при закрытии мигратора")
		}
	}()

	done := make(chan error, 1)
	go func() { done <- m.Up() }()

	select {
	case <-ctx.Done():
		m.GracefulStop <- true
		<-done
		return fmt.Errorf("postgres: миграции прерваны: %w", ctx.Err())
	case err := <-done:
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("postgres: не удалось выполнить миграции: %w", err)
		}
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("postgres: не удалось получить версию схемы: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Схема базы данных актуальна")

	return nil
}

// MigrationVersions возвращает номера версий, найденные в fsys, по возрастанию.
func MigrationVersions(fsys fs.FS) ([]uint, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать каталог миграций: %w", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		return nil, fmt.Errorf("postgres: нет миграций: %w", err)
	}

	versions := []uint{version}
	for {
		next, err := src.Next(version)
		if errors.Is(err, os.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("postgres: не удалось прочитать миграцию после %d: %w", version, err)
		}
		versions = append(versions, next)
		version = next
	}
}

// newMigrator берёт из пула отдельное соединение: m.Close закрывает только его.
func newMigrator(ctx context.Context, conn *sqlx.DB, fsys fs.FS) (*migrate.Migrate, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать каталог миграций: %w", err)
	}

	sqlConn, err := conn.Conn(ctx)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("postgres: не удалось получить соединение для миграций: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, sqlConn, &postgres.Config{})
	if err != nil {
		sqlConn.Close()
		src.Close()
		return nil, fmt.Errorf("postgres: не удалось инициализировать драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось инициализировать миграции: %w", err)
	}
	return m, nil
}
