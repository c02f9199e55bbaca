package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/service"
	"taskManager/internal/worker"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	storage   *repository.Handle
	manager   *service.TaskManager
	worker    *worker.BackupWorker
	shutdowns []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// MainTarget - основной носитель по настройкам
func MainTarget(cfg *config.Config) repository.Target {
	target := repository.Target{Type: cfg.Repository.Type}
	switch cfg.Repository.Type {
	case config.RepositoryFile:
		target.Location = cfg.Repository.FilePath
	case config.RepositorySQLite:
		target.Location = cfg.Repository.SQLitePath
	case config.RepositoryPostgres:
		target.Location = cfg.Database.URL
		target.Postgres = postgres.Options{
			MaxConns:        int32(cfg.Database.MaxConnections),
			MinConns:        int32(cfg.Database.MinConnections),
			MaxConnIdleTime: cfg.Database.IdleTimeout,
			ConnectTimeout:  cfg.Database.ConnectTimeout,
		}
	}
	return target
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Завершение работы логгирования...")
		logger.Sync()
	})

	target := MainTarget(a.config)
	storage, err := repository.Open(ctx, target)
	if err != nil {
		return fmt.Errorf("открытие хранилища %s: %w", target, err)
	}
	a.storage = storage
	a.shutdowns = append(a.shutdowns, func() {
		if err := storage.Close(); err != nil {
			logger.Error("App: Ошибка закрытия хранилища", err)
		}
	})

	manager, err := service.Load(ctx, storage.Repository, service.WithHistoryLimit(a.config.History.Limit))
	if err != nil {
		return fmt.Errorf("загрузка хранилища: %w", err)
	}
	a.manager = manager

	if err := a.initBackup(ctx); err != nil {
		return err
	}

	handler := handlers.NewTaskHandler(manager, storage.HealthCheck)
	a.router = handlers.NewRouter(handler,
		middleware.RequestID,
		middleware.Logging,
		middleware.CORS(a.config.Server.AllowedOrigins),
		middleware.Timeout(a.config.Server.RequestTimeout),
		middleware.RateLimit(a.config.Server.RateLimit),
	)

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("App: Инициализация завершена",
		zap.String("repository", target.String()),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initBackup(ctx context.Context) error {
	cfg := a.config.Backup
	if !cfg.Enabled {
		return nil
	}
	target := repository.Target{Type: cfg.Type, Location: cfg.Path}
	backup, err := repository.Open(ctx, target)
	if err != nil {
		return fmt.Errorf("открытие носителя резервной копии %s: %w", target, err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		if err := backup.Close(); err != nil {
			logger.Error("App: Ошибка закрытия носителя резервной копии", err)
		}
	})
	interval := cfg.Interval
	a.worker = worker.NewBackupWorker(a.manager, backup.Repository, &interval)
	return nil
}

// Handler - собранный роутер, нужен для тестов
func (a *App) Handler() http.Handler {
	return a.router
}

// Run запускает сервер и фоновые задачи до сигнала или отмены ctx
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	logger.Info("App: Работа завершена")
	return err
}

// Close освобождает ресурсы; безопасно вызывать повторно и после неудачного Init
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
