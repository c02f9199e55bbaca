package service

import (
	"context"

	"taskManager/internal/repository/record"
)

// SnapshotRepository - носитель полного снимка хранилища
type SnapshotRepository interface {
	Save(context.Context, []record.Record) error
	Load(context.Context) ([]record.Record, error)
}
