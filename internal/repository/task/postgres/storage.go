package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/repository/record"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var columns = []string{"id", "position", "kind", "name", "status", "description", "epic_id", "duration_minutes", "start_at", "end_at"}

type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	// ConnectTimeout ограничивает общее время попыток подключения
	ConnectTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: time.Minute * 5,
		ConnectTimeout:  time.Second * 30,
	}
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, opts Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	// база в контейнере поднимается дольше приложения
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = DefaultOptions().ConnectTimeout
	if opts.ConnectTimeout > 0 {
		b.MaxElapsedTime = opts.ConnectTimeout
	}
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("Repository: Неудачная проверка ping", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		pool.Close()
		logger.Error("Repository: Не удалось подключиться к PostgreSQL", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL", zap.Int("attempts", attempt))
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// Migrate накатывает встроенные миграции через соединение из пула
func (s *Storage) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("чтение миграций: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		_ = db.Close()
		logger.Error("Repository: Не удалось подготовить миграции", err)
		return fmt.Errorf("подготовка миграций: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("подготовка миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// SchemaVersion - номер последней применённой миграции
func (s *Storage) SchemaVersion(ctx context.Context) (uint, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM schema_migrations LIMIT 1`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("чтение версии схемы: %w", err)
	}
	return uint(version), nil
}

// Save заменяет содержимое таблицы одной транзакцией
func (s *Storage) Save(ctx context.Context, records []record.Record) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM records`); err != nil {
		logger.Error("Repository: Не удалось очистить таблицу", err)
		return fmt.Errorf("очистка таблицы: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"records"}, columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.ID, i, string(r.Kind), r.Name, string(r.Status), r.Description,
				r.EpicID, minutes(r.Duration), r.Start, r.End}, nil
		}))
	if err != nil {
		logger.Error("Repository: Не удалось записать снимок", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись снимка: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Load(ctx context.Context) ([]record.Record, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, `SELECT
			id, kind, name, status, description, epic_id, duration_minutes, start_at, end_at
		FROM records
		ORDER BY position`)
	if err != nil {
		logger.Error("Repository: Не удалось получить записи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение записей: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var (
			r            record.Record
			kind, status string
			duration     *int64
		)
		if err := rows.Scan(&r.ID, &kind, &r.Name, &status, &r.Description, &r.EpicID, &duration, &r.Start, &r.End); err != nil {
			return nil, fmt.Errorf("сканирование записи: %w", err)
		}

		if r.Kind, err = task.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("запись %d: %v: %w", r.ID, err, record.ErrMalformed)
		}
		if r.Status, err = task.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("запись %d: %v: %w", r.ID, err, record.ErrMalformed)
		}
		if duration != nil {
			d := time.Duration(*duration) * time.Minute
			r.Duration = &d
		}
		r.Start = utc(r.Start)
		r.End = utc(r.End)

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return records, nil
}

func minutes(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	m := int64(*d / time.Minute)
	return &m
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
