package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"taskManager/internal/handlers"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/models/task"
	"taskManager/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

var _ handlers.Service = (*MockTaskService)(nil)

func (m *MockTaskService) CreateTask(ctx context.Context, t *task.Task) (int, error) {
	args := m.Called(ctx, t)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskService) CreateEpic(ctx context.Context, e *task.Epic) (int, error) {
	args := m.Called(ctx, e)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskService) CreateSubtask(ctx context.Context, s *task.Subtask) (int, error) {
	args := m.Called(ctx, s)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, id int) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetEpic(ctx context.Context, id int) (*task.Epic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Epic), args.Error(1)
}

func (m *MockTaskService) GetSubtask(ctx context.Context, id int) (*task.Subtask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Subtask), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskService) UpdateEpic(ctx context.Context, e *task.Epic) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockTaskService) UpdateSubtask(ctx context.Context, s *task.Subtask) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskService) DeleteEpic(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskService) DeleteSubtask(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskService) DeleteTasks(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTaskService) DeleteEpics(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTaskService) DeleteSubtasks(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTaskService) GetTasksList(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) GetEpicsList(ctx context.Context) ([]*task.Epic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Epic), args.Error(1)
}

func (m *MockTaskService) GetSubtasksList(ctx context.Context) ([]*task.Subtask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Subtask), args.Error(1)
}

func (m *MockTaskService) GetEpicSubtasks(ctx context.Context, id int) ([]*task.Subtask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Subtask), args.Error(1)
}

func (m *MockTaskService) GetHistory(ctx context.Context) ([]task.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Item), args.Error(1)
}

func (m *MockTaskService) GetPrioritizedTasks(ctx context.Context) ([]task.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Item), args.Error(1)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// TestTaskHandler_HealthCheck тестирует проверку состояния
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		checks         []handlers.HealthCheck
		expectedStatus int
	}{
		{
			name:           "healthy without checks",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "healthy check",
			checks:         []handlers.HealthCheck{func(context.Context) error { return nil }},
			expectedStatus: http.StatusOK,
		},
		{
			name: "failing check",
			checks: []handlers.HealthCheck{func(context.Context) error {
				return errors.New("база недоступна")
			}},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := handlers.NewRouter(handlers.NewTaskHandler(new(MockTaskService), tt.checks...))
			w := do(t, router, http.MethodGet, "/health", "")
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - create task",
			requestBody: `{"name":"Test","description":"Desc","duration":30,"startTime":"01-02-2025 10:00"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
					return tk.ID == task.NoID && tk.Name == "Test" && tk.Status == task.StatusNew &&
						tk.Duration != nil && *tk.Duration == 30*time.Minute &&
						tk.StartTime != nil && tk.StartTime.Equal(time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC))
				})).Return(7, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - unknown field",
			requestBody:    `{"name":"Test","title":"x"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - bad start time",
			requestBody:    `{"name":"Test","startTime":"2025-02-01T10:00"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - bad status",
			requestBody:    `{"name":"Test","status":"ARCHIVED"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - negative duration",
			requestBody:    `{"name":"Test","duration":-5}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - duration overflow",
			requestBody:    `{"name":"Test","duration":153722868}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - overlap",
			requestBody: `{"name":"Test"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(task.NoID, service.NewConflict(task.NoID, 1))
			},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:        "error - save failed",
			requestBody: `{"name":"Test"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(task.NoID, service.NewSaveFailed(errors.New("диск полон")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:        "error - service error",
			requestBody: `{"name":"Test"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(task.NoID, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			router := handlers.NewRouter(handlers.NewTaskHandler(mockService))

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				body := decode[map[string]int](t, w)
				assert.Equal(t, 7, body["id"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetByID тестирует чтение по id для всех видов
func TestTaskHandler_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "task found",
			path: "/tasks/1",
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, 1).Return(task.NewTask("a", "", task.StatusNew, task.WithID(1)), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "task not found",
			path: "/tasks/2",
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, 2).Return(nil, service.NewNotFound(task.KindTask, 2))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad id",
			path:           "/tasks/abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "epic found",
			path: "/epics/3",
			setupMock: func(m *MockTaskService) {
				m.On("GetEpic", mock.Anything, 3).Return(task.NewEpic("e", "", task.WithID(3)), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "subtask found",
			path: "/subtasks/4",
			setupMock: func(m *MockTaskService) {
				m.On("GetSubtask", mock.Anything, 4).Return(task.NewSubtask(3, "s", "", task.StatusDone, task.WithID(4)), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "epic subtasks of missing epic",
			path: "/epics/9/subtasks",
			setupMock: func(m *MockTaskService) {
				m.On("GetEpicSubtasks", mock.Anything, 9).Return(nil, service.NewNotFound(task.KindEpic, 9))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			router := handlers.NewRouter(handlers.NewTaskHandler(mockService))

			w := do(t, router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateAndDelete тестирует изменение и удаление
func TestTaskHandler_UpdateAndDelete(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "update task",
			method: http.MethodPut,
			path:   "/tasks/5",
			body:   `{"name":"new","status":"IN_PROGRESS"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
					return tk.ID == 5 && tk.Status == task.StatusInProgress
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "update subtask with changed epic",
			method: http.MethodPut,
			path:   "/subtasks/5",
			body:   `{"name":"new","epicId":2}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateSubtask", mock.Anything, mock.Anything).
					Return(service.NewValidationError("epicId", "эпик подзадачи менять нельзя"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "update missing epic",
			method: http.MethodPut,
			path:   "/epics/5",
			body:   `{"name":"new"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateEpic", mock.Anything, mock.Anything).Return(service.NewNotFound(task.KindEpic, 5))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "delete task",
			method: http.MethodDelete,
			path:   "/tasks/5",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, 5).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "delete all epics",
			method: http.MethodDelete,
			path:   "/epics",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteEpics", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "delete all subtasks fails",
			method: http.MethodDelete,
			path:   "/subtasks",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteSubtasks", mock.Anything).Return(service.NewSaveFailed(errors.New("boom")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			router := handlers.NewRouter(handlers.NewTaskHandler(mockService))

			w := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ErrorResponses тестирует формат ошибок
func TestTaskHandler_ErrorResponses(t *testing.T) {
	mockService := new(MockTaskService)
	router := handlers.NewRouter(handlers.NewTaskHandler(mockService))

	mockService.On("GetEpic", mock.Anything, 42).Return(nil, service.NewNotFound(task.KindEpic, 42))

	w := do(t, router, http.MethodGet, "/epics/42", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	response := decode[map[string]any](t, w)
	assert.Equal(t, service.CodeNotFound, response["error"])
	assert.NotEmpty(t, response["message"])
	assert.NotNil(t, response["details"])
}

// TestTaskHandler_ConcurrentRequests тестирует конкурентные запросы
func TestTaskHandler_ConcurrentRequests(t *testing.T) {
	mockService := new(MockTaskService)
	router := handlers.NewRouter(handlers.NewTaskHandler(mockService))

	mockService.On("GetTask", mock.Anything, 1).
		Return(task.NewTask("a", "", task.StatusNew, task.WithID(1)), nil).Times(10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	mockService.AssertExpectations(t)
}

// TestRouter_WithTaskManager прогоняет сценарий на настоящем хранилище
func TestRouter_WithTaskManager(t *testing.T) {
	router := handlers.NewRouter(handlers.NewTaskHandler(service.NewTaskManager()))

	w := do(t, router, http.MethodPost, "/epics", `{"name":"Релиз","description":"v1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	epicID := decode[map[string]int](t, w)["id"]

	w = do(t, router, http.MethodPost, "/subtasks",
		`{"name":"Сборка","epicId":0,"duration":60,"startTime":"01-02-2025 10:00","status":"DONE"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	subtaskID := decode[map[string]int](t, w)["id"]

	w = do(t, router, http.MethodPost, "/tasks",
		`{"name":"Пересечение","duration":30,"startTime":"01-02-2025 10:30"}`)
	assert.Equal(t, http.StatusNotAcceptable, w.Code)

	w = do(t, router, http.MethodPost, "/tasks",
		`{"name":"Позже","duration":15,"startTime":"01-02-2025 12:00"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	taskID := decode[map[string]int](t, w)["id"]

	w = do(t, router, http.MethodPost, "/tasks", `{"name":"Без времени"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("epic aggregates", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/epics/0", "")
		require.Equal(t, http.StatusOK, w.Code)
		epic := decode[dto.EpicResponse](t, w)
		assert.Equal(t, epicID, epic.ID)
		assert.Equal(t, string(task.StatusDone), epic.Status)
		assert.Equal(t, []int{subtaskID}, epic.Subtasks)
		require.NotNil(t, epic.StartTime)
		require.NotNil(t, epic.EndTime)
		assert.Equal(t, "01-02-2025 10:00", *epic.StartTime)
		assert.Equal(t, "01-02-2025 11:00", *epic.EndTime)
	})

	t.Run("prioritized", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/prioritized", "")
		require.Equal(t, http.StatusOK, w.Code)
		items := decode[[]map[string]any](t, w)
		require.Len(t, items, 2)
		assert.EqualValues(t, subtaskID, items[0]["id"])
		assert.EqualValues(t, taskID, items[1]["id"])
	})

	t.Run("history", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/history", "")
		require.Equal(t, http.StatusOK, w.Code)
		items := decode[[]map[string]any](t, w)
		require.Len(t, items, 1)
		assert.Equal(t, string(task.KindEpic), items[0]["type"])
	})

	t.Run("delete epic cascades", func(t *testing.T) {
		w := do(t, router, http.MethodDelete, "/epics/0", "")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, router, http.MethodGet, "/subtasks", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]dto.SubtaskResponse](t, w))
	})
}
