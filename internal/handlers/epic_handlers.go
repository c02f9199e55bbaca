package handlers

import (
	"net/http"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"

	"go.uber.org/zap"
)

func (h *TaskHandler) GetEpics(w http.ResponseWriter, r *http.Request) {
	epics, err := h.TaskService.GetEpicsList(r.Context())
	if err != nil {
		respondError(w, r, err, "get_epics")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromEpicList(epics))
}

func (h *TaskHandler) PostEpic(w http.ResponseWriter, r *http.Request) {
	var request dto.EpicRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	id, err := h.TaskService.CreateEpic(r.Context(), request.ToEpic(task.NoID))
	if err != nil {
		respondError(w, r, err, "create_epic")
		return
	}
	logger.Info("HTTP_OUT: Эпик создан", zap.Int("epic_id", id))
	responseWithJSON(w, http.StatusCreated, toPayload("id", id))
}

func (h *TaskHandler) DeleteEpics(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.DeleteEpics(r.Context()); err != nil {
		respondError(w, r, err, "delete_epics")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) GetEpicByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.TaskService.GetEpic(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get_epic")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromEpic(e))
}

func (h *TaskHandler) GetEpicSubtasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	subtasks, err := h.TaskService.GetEpicSubtasks(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "get_epic_subtasks")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSubtaskList(subtasks))
}

func (h *TaskHandler) UpdateEpicByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var request dto.EpicRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := h.TaskService.UpdateEpic(r.Context(), request.ToEpic(id)); err != nil {
		respondError(w, r, err, "update_epic")
		return
	}
	logger.Info("HTTP_OUT: Эпик обновлён", zap.Int("epic_id", id))
	responseWithJSON(w, http.StatusOK, toPayload("id", id))
}

func (h *TaskHandler) DeleteEpicByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.TaskService.DeleteEpic(r.Context(), id); err != nil {
		respondError(w, r, err, "delete_epic")
		return
	}
	logger.Info("HTTP_OUT: Эпик удалён", zap.Int("epic_id", id))
	w.WriteHeader(http.StatusNoContent)
}
