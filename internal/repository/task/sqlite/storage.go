package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/repository/record"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Storage хранит снимок в таблице records файла SQLite
type Storage struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("не задан путь к базе")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	// одна запись за раз, иначе SQLite вернёт SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Repository: Открыта база SQLite", zap.String("path", path))
	return &Storage{db: db}, nil
}

// migrateUp накатывает встроенные миграции. m.Close не вызываем: драйвер
// закрыл бы и db, которым дальше пользуется Storage.
func migrateUp(ctx context.Context, db *sql.DB) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("чтение миграций: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("подготовка миграций: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("подготовка миграций: %w", err)
	}
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции SQLite", err)
		return fmt.Errorf("применение миграций: %w", err)
	}
	return nil
}

// SchemaVersion - номер последней применённой миграции
func (s *Storage) SchemaVersion(ctx context.Context) (uint, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations LIMIT 1`).Scan(&version); err != nil {
		return 0, fmt.Errorf("чтение версии схемы: %w", err)
	}
	return uint(version), nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save заменяет содержимое таблицы одной транзакцией
func (s *Storage) Save(ctx context.Context, records []record.Record) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("очистка таблицы: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(id, position, kind, name, status, description, epic_id, duration_minutes, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("подготовка запроса: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID, i, string(r.Kind), r.Name, string(r.Status), r.Description,
			nullInt(r.EpicID), nullMinutes(r.Duration), nullUnix(r.Start), nullUnix(r.End))
		if err != nil {
			logger.Error("Repository: Не удалось записать запись", err, zap.Int("id", r.ID))
			return fmt.Errorf("запись %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Load(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			id, kind, name, status, description, epic_id, duration_minutes, start_at, end_at
		FROM records
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("чтение записей: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var r record.Record
		var kind, status string
		var epicID, duration, startAt, endAt sql.NullInt64
		if err := rows.Scan(&r.ID, &kind, &r.Name, &status, &r.Description, &epicID, &duration, &startAt, &endAt); err != nil {
			return nil, fmt.Errorf("сканирование записи: %w", err)
		}

		if r.Kind, err = task.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("запись %d: %v: %w", r.ID, err, record.ErrMalformed)
		}
		if r.Status, err = task.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("запись %d: %v: %w", r.ID, err, record.ErrMalformed)
		}
		r.EpicID = intOf(epicID)
		r.Duration = minutesOf(duration)
		r.Start = unixOf(startAt)
		r.End = unixOf(endAt)

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return records, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullMinutes(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d / time.Minute), Valid: true}
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func intOf(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func minutesOf(v sql.NullInt64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Int64) * time.Minute
	return &d
}

func unixOf(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
