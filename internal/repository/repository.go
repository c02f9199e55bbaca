package repository

import (
	"context"
	"fmt"
	"strings"

	"taskManager/internal/repository/task/file"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/repository/task/sqlite"
	"taskManager/internal/service"
)

const (
	TypeMemory   = "memory"
	TypeFile     = "file"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Target описывает носитель: тип и путь к файлу или строку подключения
type Target struct {
	Type     string
	Location string
	Postgres postgres.Options
}

// ParseTarget разбирает строку вида file:data/tasks.csv, sqlite:data/tasks.db,
// postgres:postgres://user@host/db или memory
func ParseTarget(raw string) (Target, error) {
	if raw == TypeMemory {
		return Target{Type: TypeMemory}, nil
	}
	kind, location, ok := strings.Cut(raw, ":")
	if !ok || location == "" {
		return Target{}, fmt.Errorf("ожидается тип:путь, получено %q", raw)
	}
	switch kind {
	case TypeFile, TypeSQLite, TypePostgres:
	default:
		return Target{}, fmt.Errorf("неизвестный тип носителя %q", kind)
	}
	return Target{Type: kind, Location: location, Postgres: postgres.DefaultOptions()}, nil
}

func (t Target) String() string {
	if t.Type == TypeMemory || t.Type == TypePostgres {
		// строку подключения не показываем, в ней может быть пароль
		return t.Type
	}
	return t.Type + ":" + t.Location
}

// Handle - открытый носитель с функциями закрытия и проверки
type Handle struct {
	Repository service.SnapshotRepository
	close      func() error
	health     func(context.Context) error
}

func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

func (h *Handle) HealthCheck(ctx context.Context) error {
	if h.health == nil {
		return nil
	}
	return h.health(ctx)
}

func Open(ctx context.Context, t Target) (*Handle, error) {
	switch t.Type {
	case TypeMemory:
		s := inmemory.NewSnapshotStorage()
		return &Handle{Repository: s, health: s.HealthCheck}, nil
	case TypeFile:
		return &Handle{Repository: file.New(t.Location)}, nil
	case TypeSQLite:
		s, err := sqlite.Open(ctx, t.Location)
		if err != nil {
			return nil, err
		}
		return &Handle{Repository: s, close: s.Close, health: s.HealthCheck}, nil
	case TypePostgres:
		s, err := postgres.New(ctx, t.Location, t.Postgres)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return &Handle{
			Repository: s,
			close:      func() error { s.Close(); return nil },
			health:     s.HealthCheck,
		}, nil
	}
	return nil, fmt.Errorf("неизвестный тип носителя %q", t.Type)
}
