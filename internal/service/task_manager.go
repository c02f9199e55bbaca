package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"taskManager/internal/history"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/planner"

	"go.uber.org/zap"
)

// TaskManager - единственный владелец задач, эпиков и подзадач.
// Все операции выполняются под одним мьютексом, вместе с сохранением.
type TaskManager struct {
	mu sync.RWMutex

	tasks    map[int]*task.Task
	epics    map[int]*task.Epic
	subtasks map[int]*task.Subtask

	history *history.Tracker
	index   *planner.Index
	nextID  int

	repo         SnapshotRepository
	historyLimit int
}

func NewTaskManager(opts ...ManagerOption) *TaskManager {
	m := &TaskManager{
		tasks:    make(map[int]*task.Task),
		epics:    make(map[int]*task.Epic),
		subtasks: make(map[int]*task.Subtask),
		index:    planner.NewIndex(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.history = history.NewTracker(m.historyLimit)
	return m
}

// normalize проверяет поля и приводит расписание к UTC с точностью до минуты
func normalize(b *task.Base) error {
	if err := checkText(b.Name, b.Description); err != nil {
		return err
	}
	if !b.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("неизвестный статус %q", b.Status))
	}
	if b.Duration != nil {
		if *b.Duration < 0 {
			return NewValidationError("duration", "длительность не может быть отрицательной")
		}
		d := b.Duration.Truncate(time.Minute)
		b.Duration = &d
	}
	if b.StartTime != nil {
		s := b.StartTime.UTC().Truncate(time.Minute)
		b.StartTime = &s
	}
	return nil
}

// checkText не пускает \r: encoding/csv читает \r\n внутри кавычек как \n
func checkText(name, description string) error {
	if strings.ContainsRune(name, '\r') {
		return NewValidationError("name", "возврат каретки не допускается")
	}
	if strings.ContainsRune(description, '\r') {
		return NewValidationError("description", "возврат каретки не допускается")
	}
	return nil
}

func (m *TaskManager) checkOverlap(b *task.Base) error {
	iv, ok := planner.IntervalOf(b)
	if !ok {
		return nil
	}
	if with, conflict := m.index.Conflict(b.ID, iv); conflict {
		logger.Info("Service: Пересечение по времени", zap.Int("id", b.ID), zap.Int("with", with))
		return NewConflict(b.ID, with)
	}
	return nil
}

func (m *TaskManager) schedule(kind task.Kind, b *task.Base) {
	if iv, ok := planner.IntervalOf(b); ok {
		m.index.Put(b.ID, kind, iv)
		return
	}
	m.index.Remove(b.ID)
}

func (m *TaskManager) refreshEpic(e *task.Epic) {
	members := make([]*task.Subtask, 0, len(e.SubtaskIDs))
	for _, id := range e.SubtaskIDs {
		if s, ok := m.subtasks[id]; ok {
			members = append(members, s)
		}
	}
	planner.Aggregate(members).Apply(e)
}

func (m *TaskManager) dropSubtask(id int) {
	delete(m.subtasks, id)
	m.index.Remove(id)
	m.history.Remove(id)
}

func (m *TaskManager) CreateTask(ctx context.Context, t *task.Task) (int, error) {
	if t == nil {
		return task.NoID, NewValidationError("task", "задача не передана")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := t.Copy()
	if err := normalize(&candidate.Base); err != nil {
		return task.NoID, err
	}
	// переданный id игнорируется, иначе можно затереть чужую задачу
	id := m.nextID
	candidate.ID = id
	if err := m.checkOverlap(&candidate.Base); err != nil {
		return task.NoID, err
	}

	err := m.mutate(ctx, func() {
		m.nextID++
		m.tasks[id] = candidate
		m.schedule(task.KindTask, &candidate.Base)
	})
	if err != nil {
		return task.NoID, err
	}

	logger.Info("Service: Задача создана", zap.Int("id", id))
	return id, nil
}

// CreateEpic создаёт пустой эпик: переданный список подзадач и вычисляемые поля отбрасываются
func (m *TaskManager) CreateEpic(ctx context.Context, e *task.Epic) (int, error) {
	if e == nil {
		return task.NoID, NewValidationError("epic", "эпик не передан")
	}
	if err := checkText(e.Name, e.Description); err != nil {
		return task.NoID, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	candidate := task.NewEpic(e.Name, e.Description, task.WithID(id))
	planner.Aggregate(nil).Apply(candidate)

	err := m.mutate(ctx, func() {
		m.nextID++
		m.epics[id] = candidate
	})
	if err != nil {
		return task.NoID, err
	}

	logger.Info("Service: Эпик создан", zap.Int("id", id))
	return id, nil
}

func (m *TaskManager) CreateSubtask(ctx context.Context, s *task.Subtask) (int, error) {
	if s == nil {
		return task.NoID, NewValidationError("subtask", "подзадача не передана")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID != task.NoID && s.ID == s.EpicID {
		return task.NoID, NewBusinessError(CodeConflict, "подзадача не может быть своим эпиком",
			ToDetail("id", s.ID))
	}
	epic, ok := m.epics[s.EpicID]
	if !ok {
		return task.NoID, NewNotFound(task.KindEpic, s.EpicID)
	}

	candidate := s.Copy()
	if err := normalize(&candidate.Base); err != nil {
		return task.NoID, err
	}
	id := m.nextID
	candidate.ID = id
	if err := m.checkOverlap(&candidate.Base); err != nil {
		return task.NoID, err
	}

	err := m.mutate(ctx, func() {
		m.nextID++
		m.subtasks[id] = candidate
		epic.SubtaskIDs = append(epic.SubtaskIDs, id)
		m.schedule(task.KindSubtask, &candidate.Base)
		m.refreshEpic(epic)
	})
	if err != nil {
		return task.NoID, err
	}

	logger.Info("Service: Подзадача создана", zap.Int("id", id), zap.Int("epic_id", epic.ID))
	return id, nil
}

// Get* пишут в историю, поэтому берут полную блокировку

func (m *TaskManager) GetTask(ctx context.Context, id int) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		logger.Debug("Service: Задача не найдена", zap.Int("target_id", id))
		return nil, NewNotFound(task.KindTask, id)
	}
	m.history.Add(t)
	return t.Copy(), nil
}

func (m *TaskManager) GetEpic(ctx context.Context, id int) (*task.Epic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.epics[id]
	if !ok {
		logger.Debug("Service: Эпик не найден", zap.Int("target_id", id))
		return nil, NewNotFound(task.KindEpic, id)
	}
	m.history.Add(e)
	return e.Copy(), nil
}

func (m *TaskManager) GetSubtask(ctx context.Context, id int) (*task.Subtask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subtasks[id]
	if !ok {
		logger.Debug("Service: Подзадача не найдена", zap.Int("target_id", id))
		return nil, NewNotFound(task.KindSubtask, id)
	}
	m.history.Add(s)
	return s.Copy(), nil
}

// UpdateTask заменяет задачу целиком
func (m *TaskManager) UpdateTask(ctx context.Context, t *task.Task) error {
	if t == nil {
		return NewValidationError("task", "задача не передана")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[t.ID]; !ok {
		return NewNotFound(task.KindTask, t.ID)
	}
	candidate := t.Copy()
	if err := normalize(&candidate.Base); err != nil {
		return err
	}
	if err := m.checkOverlap(&candidate.Base); err != nil {
		return err
	}

	return m.mutate(ctx, func() {
		m.tasks[candidate.ID] = candidate
		m.schedule(task.KindTask, &candidate.Base)
	})
}

// UpdateEpic меняет только название и описание
func (m *TaskManager) UpdateEpic(ctx context.Context, e *task.Epic) error {
	if e == nil {
		return NewValidationError("epic", "эпик не передан")
	}
	if err := checkText(e.Name, e.Description); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.epics[e.ID]
	if !ok {
		return NewNotFound(task.KindEpic, e.ID)
	}

	return m.mutate(ctx, func() {
		current.Name = e.Name
		current.Description = e.Description
	})
}

// UpdateSubtask заменяет подзадачу целиком; эпик подзадачи менять нельзя
func (m *TaskManager) UpdateSubtask(ctx context.Context, s *task.Subtask) error {
	if s == nil {
		return NewValidationError("subtask", "подзадача не передана")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.subtasks[s.ID]
	if !ok {
		return NewNotFound(task.KindSubtask, s.ID)
	}
	if s.EpicID != current.EpicID {
		return NewValidationError("epicId", fmt.Sprintf("подзадача принадлежит эпику %d", current.EpicID))
	}
	candidate := s.Copy()
	if err := normalize(&candidate.Base); err != nil {
		return err
	}
	if err := m.checkOverlap(&candidate.Base); err != nil {
		return err
	}

	return m.mutate(ctx, func() {
		m.subtasks[candidate.ID] = candidate
		m.schedule(task.KindSubtask, &candidate.Base)
		m.refreshEpic(m.epics[candidate.EpicID])
	})
}

func (m *TaskManager) DeleteTask(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return NewNotFound(task.KindTask, id)
	}

	err := m.mutate(ctx, func() {
		delete(m.tasks, id)
		m.index.Remove(id)
		m.history.Remove(id)
	})
	if err != nil {
		return err
	}
	logger.Info("Service: Задача удалена", zap.Int("id", id))
	return nil
}

// DeleteEpic удаляет эпик вместе со всеми его подзадачами
func (m *TaskManager) DeleteEpic(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	epic, ok := m.epics[id]
	if !ok {
		return NewNotFound(task.KindEpic, id)
	}

	err := m.mutate(ctx, func() {
		for _, sid := range epic.SubtaskIDs {
			m.dropSubtask(sid)
		}
		delete(m.epics, id)
		m.history.Remove(id)
	})
	if err != nil {
		return err
	}
	logger.Info("Service: Эпик удалён", zap.Int("id", id), zap.Int("subtasks", len(epic.SubtaskIDs)))
	return nil
}

func (m *TaskManager) DeleteSubtask(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subtasks[id]
	if !ok {
		return NewNotFound(task.KindSubtask, id)
	}

	err := m.mutate(ctx, func() {
		m.dropSubtask(id)
		if epic, ok := m.epics[s.EpicID]; ok {
			epic.SubtaskIDs = slices.DeleteFunc(epic.SubtaskIDs, func(sid int) bool { return sid == id })
			m.refreshEpic(epic)
		}
	})
	if err != nil {
		return err
	}
	logger.Info("Service: Подзадача удалена", zap.Int("id", id))
	return nil
}

func (m *TaskManager) DeleteTasks(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mutate(ctx, func() {
		for id := range m.tasks {
			m.index.Remove(id)
			m.history.Remove(id)
		}
		clear(m.tasks)
	})
}

// DeleteEpics удаляет все эпики, а значит и все подзадачи
func (m *TaskManager) DeleteEpics(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mutate(ctx, func() {
		for id := range m.subtasks {
			m.dropSubtask(id)
		}
		for id := range m.epics {
			m.history.Remove(id)
		}
		clear(m.epics)
	})
}

func (m *TaskManager) DeleteSubtasks(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mutate(ctx, func() {
		for id := range m.subtasks {
			m.dropSubtask(id)
		}
		for _, epic := range m.epics {
			epic.SubtaskIDs = nil
			m.refreshEpic(epic)
		}
	})
}

func (m *TaskManager) GetTasksList(ctx context.Context) ([]*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*task.Task, 0, len(m.tasks))
	for _, id := range sortedKeys(m.tasks) {
		list = append(list, m.tasks[id].Copy())
	}
	return list, nil
}

func (m *TaskManager) GetEpicsList(ctx context.Context) ([]*task.Epic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*task.Epic, 0, len(m.epics))
	for _, id := range sortedKeys(m.epics) {
		list = append(list, m.epics[id].Copy())
	}
	return list, nil
}

func (m *TaskManager) GetSubtasksList(ctx context.Context) ([]*task.Subtask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*task.Subtask, 0, len(m.subtasks))
	for _, id := range sortedKeys(m.subtasks) {
		list = append(list, m.subtasks[id].Copy())
	}
	return list, nil
}

// GetEpicSubtasks возвращает подзадачи в порядке добавления в эпик
func (m *TaskManager) GetEpicSubtasks(ctx context.Context, epicID int) ([]*task.Subtask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	epic, ok := m.epics[epicID]
	if !ok {
		return nil, NewNotFound(task.KindEpic, epicID)
	}
	list := make([]*task.Subtask, 0, len(epic.SubtaskIDs))
	for _, id := range epic.SubtaskIDs {
		list = append(list, m.subtasks[id].Copy())
	}
	return list, nil
}

// GetHistory - просмотренные задачи от самой давней к последней
func (m *TaskManager) GetHistory(ctx context.Context) ([]task.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.history.History(), nil
}

// GetPrioritizedTasks - задачи и подзадачи с расписанием по возрастанию начала
func (m *TaskManager) GetPrioritizedTasks(ctx context.Context) ([]task.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.index.Ordered()
	list := make([]task.Item, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case task.KindTask:
			list = append(list, m.tasks[e.ID].Copy())
		case task.KindSubtask:
			list = append(list, m.subtasks[e.ID].Copy())
		}
	}
	return list, nil
}

func sortedKeys[V any](items map[int]V) []int {
	keys := make([]int, 0, len(items))
	for id := range items {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys
}
