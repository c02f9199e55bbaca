package worker

import (
	"context"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

const DefaultInterval = time.Hour

// Snapshotter - то, что умеет выгрузить снимок на дополнительный носитель
type Snapshotter interface {
	Backup(ctx context.Context, repo service.SnapshotRepository) error
}

// BackupWorker периодически копирует хранилище в target
type BackupWorker struct {
	source   Snapshotter
	target   service.SnapshotRepository
	interval time.Duration
}

func NewBackupWorker(source Snapshotter, target service.SnapshotRepository, interval *time.Duration) *BackupWorker {
	intervalToSet := DefaultInterval
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}
	return &BackupWorker{
		source:   source,
		target:   target,
		interval: intervalToSet,
	}
}

// Start блокируется до отмены ctx, перед выходом делает последнюю копию
func (w *BackupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Резервное копирование запущено", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Run(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Резервное копирование останавливается")
			w.Run(context.WithoutCancel(ctx))
			return
		}
	}
}

// Run делает одну копию; ошибка только логируется, следующая попытка по таймеру
func (w *BackupWorker) Run(ctx context.Context) error {
	start := time.Now()
	if err := w.source.Backup(ctx, w.target); err != nil {
		logger.Warn("Worker: Ошибка резервного копирования", zap.Error(err))
		return err
	}
	logger.Info("Worker: Резервная копия готова", zap.Duration("ms", time.Since(start)))
	return nil
}
