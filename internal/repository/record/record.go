package record

import (
	"time"

	"taskManager/internal/models/task"
)

const Header = "id,type,name,status,description,epic,duration,startTime,endTime"

// TimeLayout - формат дд-ММ-гггг чч:мм
const TimeLayout = "02-01-2006 15:04"

// Record - одна плоская запись снимка хранилища
type Record struct {
	ID          int
	Kind        task.Kind
	Name        string
	Status      task.Status
	Description string
	EpicID      *int
	Duration    *time.Duration
	Start       *time.Time
	End         *time.Time
}

func FromTask(t *task.Task) Record {
	return fromBase(task.KindTask, &t.Base)
}

// у эпика дополнительно сохраняется вычисленный конец
func FromEpic(e *task.Epic) Record {
	r := fromBase(task.KindEpic, &e.Base)
	if r.Duration == nil {
		var zero time.Duration
		r.Duration = &zero
	}
	r.End = e.EndTime()
	return r
}

func FromSubtask(s *task.Subtask) Record {
	r := fromBase(task.KindSubtask, &s.Base)
	epicID := s.EpicID
	r.EpicID = &epicID
	return r
}

func fromBase(kind task.Kind, b *task.Base) Record {
	r := Record{
		ID:          b.ID,
		Kind:        kind,
		Name:        b.Name,
		Status:      b.Status,
		Description: b.Description,
	}
	if b.Duration != nil {
		d := *b.Duration
		r.Duration = &d
	}
	if b.StartTime != nil {
		s := *b.StartTime
		r.Start = &s
	}
	return r
}

func (r Record) base() task.Base {
	b := task.Base{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
	}
	if r.Duration != nil {
		d := *r.Duration
		b.Duration = &d
	}
	if r.Start != nil {
		s := *r.Start
		b.StartTime = &s
	}
	return b
}

func (r Record) Task() *task.Task {
	return &task.Task{Base: r.base()}
}

// Epic возвращает эпик без подзадач; вычисляемые поля из записи не переносятся,
// их нужно пересчитать после загрузки подзадач
func (r Record) Epic() *task.Epic {
	return &task.Epic{Base: task.Base{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      task.StatusNew,
	}}
}

func (r Record) Subtask() *task.Subtask {
	s := &task.Subtask{Base: r.base()}
	if r.EpicID != nil {
		s.EpicID = *r.EpicID
	}
	return s
}
