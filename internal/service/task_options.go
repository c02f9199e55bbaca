package service

// ManagerOption настраивает TaskManager при создании
type ManagerOption func(*TaskManager)

// WithRepository включает сохранение после каждого изменения
func WithRepository(repo SnapshotRepository) ManagerOption {
	return func(m *TaskManager) {
		m.repo = repo
	}
}

// WithHistoryLimit ограничивает историю просмотров; 0 - без ограничения
func WithHistoryLimit(limit int) ManagerOption {
	return func(m *TaskManager) {
		m.historyLimit = limit
	}
}
