package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes вешает эндпоинты на переданный роутер; middleware подключает вызывающий
func (h *TaskHandler) Routes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetTasks)       // GET /tasks
		r.Post("/", h.PostTask)      // POST /tasks
		r.Delete("/", h.DeleteTasks) // DELETE /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", h.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", h.DeleteTaskByID) // DELETE /tasks/{id}
		})
	})

	r.Route("/subtasks", func(r chi.Router) {
		r.Get("/", h.GetSubtasks)
		r.Post("/", h.PostSubtask)
		r.Delete("/", h.DeleteSubtasks)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSubtaskByID)
			r.Put("/", h.UpdateSubtaskByID)
			r.Delete("/", h.DeleteSubtaskByID)
		})
	})

	r.Route("/epics", func(r chi.Router) {
		r.Get("/", h.GetEpics)
		r.Post("/", h.PostEpic)
		r.Delete("/", h.DeleteEpics)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEpicByID)
			r.Put("/", h.UpdateEpicByID)
			r.Delete("/", h.DeleteEpicByID)
			r.Get("/subtasks", h.GetEpicSubtasks) // GET /epics/{id}/subtasks
		})
	})

	r.Get("/history", h.GetHistory)
	r.Get("/prioritized", h.GetPrioritized)
	r.Get("/health", h.HealthCheck)
}

// NewRouter - роутер без middleware, используется в тестах и в app
func NewRouter(h *TaskHandler, middlewares ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middlewares...)
	h.Routes(r)
	return r
}
