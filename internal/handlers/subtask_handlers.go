package handlers

import (
	"net/http"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"

	"go.uber.org/zap"
)

func (h *TaskHandler) GetSubtasks(w http.ResponseWriter, r *http.Request) {
	subtasks, err := h.TaskService.GetSubtasksList(r.Context())
	if err != nil {
		respondError(w, r, err, "get_subtasks")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSubtaskList(subtasks))
}

func (h *TaskHandler) PostSubtask(w http.ResponseWriter, r *http.Request) {
	var request dto.SubtaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	candidate, err := request.ToSubtask(task.NoID)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	id, err := h.TaskService.CreateSubtask(r.Context(), candidate)
	if err != nil {
		respondError(w, r, err, "create_subtask")
		return
	}
	logger.Info("HTTP_OUT: Подзадача создана", zap.Int("subtask_id", id), zap.Int("epic_id", request.EpicID))
	responseWithJSON(w, http.StatusCreated, toPayload("id", id))
}

func (h *TaskHandler) DeleteSubtasks(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.DeleteSubtasks(r.Context()); err != nil {
		respondError(w, r, err, "delete_subtasks")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) GetSubtaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.TaskService.GetSubtask(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get_subtask")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSubtask(s))
}

func (h *TaskHandler) UpdateSubtaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var request dto.SubtaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	candidate, err := request.ToSubtask(id)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.TaskService.UpdateSubtask(r.Context(), candidate); err != nil {
		respondError(w, r, err, "update_subtask")
		return
	}
	logger.Info("HTTP_OUT: Подзадача обновлена", zap.Int("subtask_id", id))
	responseWithJSON(w, http.StatusOK, toPayload("id", id))
}

func (h *TaskHandler) DeleteSubtaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.TaskService.DeleteSubtask(r.Context(), id); err != nil {
		respondError(w, r, err, "delete_subtask")
		return
	}
	logger.Info("HTTP_OUT: Подзадача удалена", zap.Int("subtask_id", id))
	w.WriteHeader(http.StatusNoContent)
}
