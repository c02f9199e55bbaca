package handlers

import (
	"context"

	"taskManager/internal/models/task"
)

// Service - операции хранилища, которые нужны HTTP слою
type Service interface {
	CreateTask(context.Context, *task.Task) (int, error)
	CreateEpic(context.Context, *task.Epic) (int, error)
	CreateSubtask(context.Context, *task.Subtask) (int, error)

	GetTask(context.Context, int) (*task.Task, error)
	GetEpic(context.Context, int) (*task.Epic, error)
	GetSubtask(context.Context, int) (*task.Subtask, error)

	UpdateTask(context.Context, *task.Task) error
	UpdateEpic(context.Context, *task.Epic) error
	UpdateSubtask(context.Context, *task.Subtask) error

	DeleteTask(context.Context, int) error
	DeleteEpic(context.Context, int) error
	DeleteSubtask(context.Context, int) error

	DeleteTasks(context.Context) error
	DeleteEpics(context.Context) error
	DeleteSubtasks(context.Context) error

	GetTasksList(context.Context) ([]*task.Task, error)
	GetEpicsList(context.Context) ([]*task.Epic, error)
	GetSubtasksList(context.Context) ([]*task.Subtask, error)
	GetEpicSubtasks(context.Context, int) ([]*task.Subtask, error)

	GetHistory(context.Context) ([]task.Item, error)
	GetPrioritizedTasks(context.Context) ([]task.Item, error)
}

// HealthCheck - проверка внешней зависимости, например базы
type HealthCheck func(context.Context) error
