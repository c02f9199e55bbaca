package service

import (
	"context"
	"fmt"
	"time"

	"taskManager/internal/history"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/planner"
	"taskManager/internal/repository/record"

	"go.uber.org/zap"
)

// state - копия всего состояния для отката при неудачном сохранении
type state struct {
	tasks    map[int]*task.Task
	epics    map[int]*task.Epic
	subtasks map[int]*task.Subtask
	history  *history.Tracker
	index    *planner.Index
	nextID   int
}

func (m *TaskManager) backup() *state {
	s := &state{
		tasks:    make(map[int]*task.Task, len(m.tasks)),
		epics:    make(map[int]*task.Epic, len(m.epics)),
		subtasks: make(map[int]*task.Subtask, len(m.subtasks)),
		history:  m.history.Clone(),
		index:    m.index.Clone(),
		nextID:   m.nextID,
	}
	for id, t := range m.tasks {
		s.tasks[id] = t.Copy()
	}
	for id, e := range m.epics {
		s.epics[id] = e.Copy()
	}
	for id, st := range m.subtasks {
		s.subtasks[id] = st.Copy()
	}
	return s
}

func (m *TaskManager) restore(s *state) {
	m.tasks = s.tasks
	m.epics = s.epics
	m.subtasks = s.subtasks
	m.history = s.history
	m.index = s.index
	m.nextID = s.nextID
}

// mutate применяет изменение и сохраняет снимок, если задан репозиторий.
// Проверки выполняются до вызова: apply не должен завершаться ошибкой.
func (m *TaskManager) mutate(ctx context.Context, apply func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.repo == nil {
		apply()
		return nil
	}

	snapshot := m.backup()
	apply()

	if err := m.save(ctx); err != nil {
		m.restore(snapshot)
		logger.Error("Service: Не удалось сохранить изменения, состояние откачено", err)
		return NewSaveFailed(err)
	}
	return nil
}

func (m *TaskManager) save(ctx context.Context) error {
	start := time.Now()
	if err := m.repo.Save(ctx, m.records()); err != nil {
		return err
	}
	logger.Debug("Service: Снимок сохранён", zap.Duration("ms", time.Since(start)))
	return nil
}

// records - задачи, затем эпики, затем подзадачи, каждые по возрастанию id
func (m *TaskManager) records() []record.Record {
	out := make([]record.Record, 0, len(m.tasks)+len(m.epics)+len(m.subtasks))
	for _, id := range sortedKeys(m.tasks) {
		out = append(out, record.FromTask(m.tasks[id]))
	}
	for _, id := range sortedKeys(m.epics) {
		out = append(out, record.FromEpic(m.epics[id]))
	}
	for _, id := range sortedKeys(m.subtasks) {
		out = append(out, record.FromSubtask(m.subtasks[id]))
	}
	return out
}

// Backup пишет текущий снимок на другой носитель без смены основного
func (m *TaskManager) Backup(ctx context.Context, repo SnapshotRepository) error {
	m.mu.RLock()
	records := m.records()
	m.mu.RUnlock()

	if err := repo.Save(ctx, records); err != nil {
		logger.Error("Service: Не удалось сохранить резервную копию", err)
		return NewSaveFailed(err)
	}
	logger.Info("Service: Резервная копия сохранена", zap.Int("records", len(records)))
	return nil
}

// Load восстанавливает хранилище из репозитория; дальнейшие изменения сохраняются в него же
func Load(ctx context.Context, repo SnapshotRepository, opts ...ManagerOption) (*TaskManager, error) {
	records, err := repo.Load(ctx)
	if err != nil {
		logger.Error("Service: Не удалось прочитать снимок", err)
		return nil, NewLoadFailed("чтение носителя", err)
	}

	m := NewTaskManager(append([]ManagerOption{WithRepository(repo)}, opts...)...)
	if err := m.restoreRecords(records); err != nil {
		logger.Error("Service: Снимок не прошёл проверку", err)
		return nil, err
	}

	logger.Info("Service: Хранилище загружено",
		zap.Int("tasks", len(m.tasks)),
		zap.Int("epics", len(m.epics)),
		zap.Int("subtasks", len(m.subtasks)),
		zap.Int("next_id", m.nextID))
	return m, nil
}

// restoreRecords собирает сущности в два прохода: подзадачи могут идти раньше своих эпиков.
// Вычисляемые поля эпиков пересчитываются, сохранённые значения не используются.
func (m *TaskManager) restoreRecords(records []record.Record) error {
	seen := make(map[int]bool, len(records))
	maxID := -1
	var pending []*task.Subtask

	for _, r := range records {
		if r.ID < 0 {
			return NewLoadFailed(fmt.Sprintf("отрицательный id %d", r.ID), nil)
		}
		if seen[r.ID] {
			return NewLoadFailed(fmt.Sprintf("повторяющийся id %d", r.ID), nil)
		}
		seen[r.ID] = true
		maxID = max(maxID, r.ID)

		switch r.Kind {
		case task.KindTask:
			t := r.Task()
			if err := normalize(&t.Base); err != nil {
				return NewLoadFailed(fmt.Sprintf("задача %d", r.ID), err)
			}
			m.tasks[t.ID] = t
		case task.KindEpic:
			m.epics[r.ID] = r.Epic()
		case task.KindSubtask:
			s := r.Subtask()
			if err := normalize(&s.Base); err != nil {
				return NewLoadFailed(fmt.Sprintf("подзадача %d", r.ID), err)
			}
			pending = append(pending, s)
		default:
			return NewLoadFailed(fmt.Sprintf("неизвестный тип %q", r.Kind), nil)
		}
	}

	for _, s := range pending {
		epic, ok := m.epics[s.EpicID]
		if !ok {
			return NewLoadFailed(fmt.Sprintf("подзадача %d ссылается на отсутствующий эпик %d", s.ID, s.EpicID), nil)
		}
		m.subtasks[s.ID] = s
		epic.SubtaskIDs = append(epic.SubtaskIDs, s.ID)
	}
	for _, epic := range m.epics {
		m.refreshEpic(epic)
	}

	for _, id := range sortedKeys(m.tasks) {
		if err := m.admitLoaded(task.KindTask, &m.tasks[id].Base); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(m.subtasks) {
		if err := m.admitLoaded(task.KindSubtask, &m.subtasks[id].Base); err != nil {
			return err
		}
	}

	m.nextID = maxID + 1
	return nil
}

func (m *TaskManager) admitLoaded(kind task.Kind, b *task.Base) error {
	if err := m.checkOverlap(b); err != nil {
		return NewLoadFailed(fmt.Sprintf("%s %d пересекается по времени", kind, b.ID), err)
	}
	m.schedule(kind, b)
	return nil
}
