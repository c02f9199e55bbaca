package inmemory

import (
	"context"
	"sync"

	"taskManager/internal/logger"
	"taskManager/internal/repository/record"

	"go.uber.org/zap"
)

// SnapshotStorage держит последний снимок в памяти процесса.
// Используется, когда хранилище не нужно переживать перезапуск.
type SnapshotStorage struct {
	mtx     sync.RWMutex
	records []record.Record
	saves   int
}

func NewSnapshotStorage() *SnapshotStorage {
	return &SnapshotStorage{}
}

func (s *SnapshotStorage) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *SnapshotStorage) Save(ctx context.Context, records []record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.records = copyRecords(records)
	s.saves++
	logger.Debug("Repository: Снимок сохранён в памяти", zap.Int("records", len(records)))
	return nil
}

func (s *SnapshotStorage) Load(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return copyRecords(s.records), nil
}

// Saves - сколько раз снимок перезаписывался
func (s *SnapshotStorage) Saves() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.saves
}

// copyRecords копирует и указатели внутри записей, чтобы снимок нельзя было поменять снаружи
func copyRecords(records []record.Record) []record.Record {
	if records == nil {
		return nil
	}
	out := make([]record.Record, len(records))
	for i, r := range records {
		if r.Duration != nil {
			d := *r.Duration
			r.Duration = &d
		}
		if r.Start != nil {
			st := *r.Start
			r.Start = &st
		}
		if r.End != nil {
			e := *r.End
			r.End = &e
		}
		if r.EpicID != nil {
			id := *r.EpicID
			r.EpicID = &id
		}
		out[i] = r
	}
	return out
}
