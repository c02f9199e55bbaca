package handlers

import (
	"net/http"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService Service
	checks      []HealthCheck
}

func NewTaskHandler(taskService Service, checks ...HealthCheck) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		checks:      checks,
	}
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.TaskService.GetTasksList(r.Context())
	if err != nil {
		respondError(w, r, err, "get_tasks")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.TaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	candidate, err := request.ToTask(task.NoID)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	id, err := h.TaskService.CreateTask(r.Context(), candidate)
	if err != nil {
		respondError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithJSON(w, http.StatusCreated, toPayload("id", id))
}

func (h *TaskHandler) DeleteTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.DeleteTasks(r.Context()); err != nil {
		respondError(w, r, err, "delete_tasks")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.TaskService.GetTask(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get_task")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var request dto.TaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	candidate, err := request.ToTask(id)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.TaskService.UpdateTask(r.Context(), candidate); err != nil {
		respondError(w, r, err, "update_task")
		return
	}
	logger.Info("HTTP_OUT: Задача обновлена", zap.Int("task_id", id))
	responseWithJSON(w, http.StatusOK, toPayload("id", id))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.TaskService.DeleteTask(r.Context(), id); err != nil {
		respondError(w, r, err, "delete_task")
		return
	}
	logger.Info("HTTP_OUT: Задача удалена", zap.Int("task_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.TaskService.GetHistory(r.Context())
	if err != nil {
		respondError(w, r, err, "get_history")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromItemList(items))
}

func (h *TaskHandler) GetPrioritized(w http.ResponseWriter, r *http.Request) {
	items, err := h.TaskService.GetPrioritizedTasks(r.Context())
	if err != nil {
		respondError(w, r, err, "get_prioritized")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromItemList(items))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.checks {
		if err := check(r.Context()); err != nil {
			logger.Error("HTTP: Проверка состояния не пройдена", err)
			responseWithJSON(w, http.StatusServiceUnavailable,
				toPayload("status", "unavailable"),
				toPayload("error", err.Error()))
			return
		}
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
