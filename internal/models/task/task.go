package task

import (
	"fmt"
	"time"
)

type Status string
type Kind string

const StatusNew Status = "NEW"
const StatusInProgress Status = "IN_PROGRESS"
const StatusDone Status = "DONE"

const KindTask Kind = "TASK"
const KindEpic Kind = "EPIC"
const KindSubtask Kind = "SUBTASK"

// NoID - идентификатор ещё не добавленной сущности.
// У нулевой структуры ID = 0, а это валидный идентификатор.
const NoID = -1

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("неизвестный статус %q", raw)
	}
	return s, nil
}

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindTask, KindEpic, KindSubtask:
		return k, nil
	}
	return "", fmt.Errorf("неизвестный тип %q", raw)
}

// Base - общие поля для всех видов задач
type Base struct {
	ID          int
	Name        string
	Description string
	Status      Status
	Duration    *time.Duration
	StartTime   *time.Time
}

// EndTime = start + duration, nil если нет времени начала
func (b *Base) EndTime() *time.Time {
	if b.StartTime == nil {
		return nil
	}
	end := *b.StartTime
	if b.Duration != nil {
		end = end.Add(*b.Duration)
	}
	return &end
}

// Scheduled - участвует ли задача в проверке пересечений
func (b *Base) Scheduled() bool {
	return b.StartTime != nil && b.Duration != nil
}

func (b *Base) clone() Base {
	c := *b
	if b.Duration != nil {
		d := *b.Duration
		c.Duration = &d
	}
	if b.StartTime != nil {
		t := *b.StartTime
		c.StartTime = &t
	}
	return c
}

// Item реализуют только Task, Epic и Subtask
type Item interface {
	Core() *Base
	Kind() Kind
	Clone() Item
	isNil() bool
}

// IsNil ловит и пустой интерфейс, и типизированный nil, например (*Task)(nil)
func IsNil(item Item) bool {
	return item == nil || item.isNil()
}

type Task struct {
	Base
}

// статус, длительность, начало и конец эпика вычисляются по подзадачам
type Epic struct {
	Base
	SubtaskIDs []int
	End        *time.Time
}

type Subtask struct {
	Base
	EpicID int
}

func (t *Task) Core() *Base {
	return &t.Base
}

func (t *Task) Kind() Kind {
	return KindTask
}

func (t *Task) Clone() Item {
	return t.Copy()
}

func (t *Task) isNil() bool {
	return t == nil
}

func (t *Task) Copy() *Task {
	return &Task{Base: t.Base.clone()}
}

func (e *Epic) Core() *Base {
	return &e.Base
}

func (e *Epic) Kind() Kind {
	return KindEpic
}

func (e *Epic) Clone() Item {
	return e.Copy()
}

func (e *Epic) isNil() bool {
	return e == nil
}

func (e *Epic) EndTime() *time.Time {
	if e.End == nil {
		return nil
	}
	end := *e.End
	return &end
}

func (e *Epic) Copy() *Epic {
	c := &Epic{Base: e.Base.clone()}
	if e.SubtaskIDs != nil {
		c.SubtaskIDs = append([]int{}, e.SubtaskIDs...)
	}
	c.End = e.EndTime()
	return c
}

func (s *Subtask) Core() *Base {
	return &s.Base
}

func (s *Subtask) Kind() Kind {
	return KindSubtask
}

func (s *Subtask) Clone() Item {
	return s.Copy()
}

func (s *Subtask) isNil() bool {
	return s == nil
}

func (s *Subtask) Copy() *Subtask {
	return &Subtask{Base: s.Base.clone(), EpicID: s.EpicID}
}

func NewTask(name, description string, status Status, opts ...Option) *Task {
	t := &Task{Base: Base{ID: NoID, Name: name, Description: description, Status: status}}
	apply(&t.Base, opts)
	return t
}

func NewEpic(name, description string, opts ...Option) *Epic {
	e := &Epic{Base: Base{ID: NoID, Name: name, Description: description, Status: StatusNew}}
	apply(&e.Base, opts)
	return e
}

func NewSubtask(epicID int, name, description string, status Status, opts ...Option) *Subtask {
	s := &Subtask{Base: Base{ID: NoID, Name: name, Description: description, Status: status}, EpicID: epicID}
	apply(&s.Base, opts)
	return s
}
