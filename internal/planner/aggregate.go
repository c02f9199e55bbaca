package planner

import (
	"time"

	"taskManager/internal/models/task"
)

// Summary - вычисляемые поля эпика
type Summary struct {
	Status   task.Status
	Duration time.Duration
	Start    *time.Time
	End      *time.Time
}

func EpicStatus(statuses []task.Status) task.Status {
	if len(statuses) == 0 {
		return task.StatusNew
	}

	countNew, countDone := 0, 0
	for _, s := range statuses {
		switch s {
		case task.StatusNew:
			countNew++
		case task.StatusDone:
			countDone++
		}
	}

	switch {
	case countNew == len(statuses):
		return task.StatusNew
	case countDone == len(statuses):
		return task.StatusDone
	default:
		return task.StatusInProgress
	}
}

// Aggregate каждый раз пересчитывает поля эпика с нуля.
// Конец эпика - конец подзадачи с самым поздним началом, а не максимальный конец.
func Aggregate(subtasks []*task.Subtask) Summary {
	statuses := make([]task.Status, 0, len(subtasks))
	var sum Summary
	var latest *task.Subtask

	for _, s := range subtasks {
		statuses = append(statuses, s.Status)
		if s.Duration != nil {
			sum.Duration += *s.Duration
		}
		if s.StartTime == nil {
			continue
		}
		if sum.Start == nil || s.StartTime.Before(*sum.Start) {
			first := *s.StartTime
			sum.Start = &first
		}
		// при равном начале побеждает более поздняя в списке эпика
		if latest == nil || !s.StartTime.Before(*latest.StartTime) {
			latest = s
		}
	}

	sum.Status = EpicStatus(statuses)
	if latest != nil {
		sum.End = latest.EndTime()
	}
	return sum
}

// Apply записывает результат в эпик
func (s Summary) Apply(epic *task.Epic) {
	d := s.Duration
	epic.Status = s.Status
	epic.Duration = &d
	epic.StartTime = nil
	if s.Start != nil {
		start := *s.Start
		epic.StartTime = &start
	}
	epic.End = nil
	if s.End != nil {
		end := *s.End
		epic.End = &end
	}
}
