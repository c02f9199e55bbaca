package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/repository/record"

	"go.uber.org/zap"
)

// Storage хранит снимок в текстовом файле, по записи на строку
type Storage struct {
	path string
}

func New(path string) *Storage {
	return &Storage{path: path}
}

func (s *Storage) Path() string {
	return s.path
}

// Save пишет снимок во временный файл рядом с основным и переименовывает его,
// так что при сбое старый файл остаётся целым
func (s *Storage) Save(ctx context.Context, records []record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		logger.Error("Repository: Не удалось создать временный файл", err, zap.String("path", s.path))
		return fmt.Errorf("создание временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := record.Encode(w, records); err != nil {
		tmp.Close()
		return fmt.Errorf("запись снимка: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("запись снимка: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		logger.Error("Repository: Не удалось заменить файл", err, zap.String("path", s.path))
		return fmt.Errorf("замена файла: %w", err)
	}

	logger.Debug("Repository: Снимок сохранён в файл",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
		zap.Duration("ms", time.Since(start)))
	return nil
}

// Load читает снимок; отсутствующий файл - пустое хранилище
func (s *Storage) Load(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("Repository: Файл не найден, хранилище пустое", zap.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("открытие файла: %w", err)
	}
	defer f.Close()

	records, err := record.Decode(bufio.NewReader(f))
	if err != nil {
		logger.Error("Repository: Не удалось прочитать файл", err, zap.String("path", s.path))
		return nil, fmt.Errorf("чтение %s: %w", s.path, err)
	}
	return records, nil
}
