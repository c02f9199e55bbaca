package dto

import (
	"fmt"
	"math"
	"time"

	"taskManager/internal/models/task"
)

// TimeLayout - формат startTime и endTime в запросах и ответах
const TimeLayout = "02-01-2006 15:04"

// MaxDurationMinutes - больше не помещается в time.Duration
const MaxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// TaskRequest - тело POST и PUT для задач; duration в минутах
type TaskRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty"`
	Duration    *int64  `json:"duration,omitempty"`
	StartTime   *string `json:"startTime,omitempty"`
}

type SubtaskRequest struct {
	TaskRequest
	EpicID int `json:"epicId"`
}

// EpicRequest - у эпика задаются только название и описание
type EpicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TaskResponse struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Duration    *int64  `json:"duration,omitempty"`
	StartTime   *string `json:"startTime,omitempty"`
	EndTime     *string `json:"endTime,omitempty"`
}

type SubtaskResponse struct {
	TaskResponse
	EpicID int `json:"epicId"`
}

type EpicResponse struct {
	TaskResponse
	Subtasks []int `json:"subtasks"`
}

func (r TaskRequest) options() ([]task.Option, task.Status, error) {
	status := task.StatusNew
	if r.Status != "" {
		s, err := task.ParseStatus(r.Status)
		if err != nil {
			return nil, "", err
		}
		status = s
	}

	var opts []task.Option
	if r.Duration != nil {
		if *r.Duration < 0 {
			return nil, "", fmt.Errorf("длительность не может быть отрицательной")
		}
		if *r.Duration > MaxDurationMinutes {
			return nil, "", fmt.Errorf("длительность больше %d минут", MaxDurationMinutes)
		}
		opts = append(opts, task.WithDuration(time.Duration(*r.Duration)*time.Minute))
	}
	if r.StartTime != nil && *r.StartTime != "" {
		start, err := time.ParseInLocation(TimeLayout, *r.StartTime, time.UTC)
		if err != nil {
			return nil, "", fmt.Errorf("startTime %q: ожидается формат дд-ММ-гггг чч:мм", *r.StartTime)
		}
		opts = append(opts, task.WithStartTime(start))
	}
	return opts, status, nil
}

// ToTask собирает задачу; id = task.NoID для новой задачи
func (r TaskRequest) ToTask(id int) (*task.Task, error) {
	opts, status, err := r.options()
	if err != nil {
		return nil, err
	}
	return task.NewTask(r.Name, r.Description, status, append(opts, task.WithID(id))...), nil
}

func (r SubtaskRequest) ToSubtask(id int) (*task.Subtask, error) {
	opts, status, err := r.options()
	if err != nil {
		return nil, err
	}
	return task.NewSubtask(r.EpicID, r.Name, r.Description, status, append(opts, task.WithID(id))...), nil
}

func (r EpicRequest) ToEpic(id int) *task.Epic {
	return task.NewEpic(r.Name, r.Description, task.WithID(id))
}

func fromBase(kind task.Kind, b *task.Base, end *time.Time) TaskResponse {
	resp := TaskResponse{
		ID:          b.ID,
		Type:        string(kind),
		Name:        b.Name,
		Description: b.Description,
		Status:      string(b.Status),
		StartTime:   formatTime(b.StartTime),
		EndTime:     formatTime(end),
	}
	if b.Duration != nil {
		minutes := int64(*b.Duration / time.Minute)
		resp.Duration = &minutes
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(TimeLayout)
	return &s
}

func FromTask(t *task.Task) TaskResponse {
	return fromBase(task.KindTask, &t.Base, t.EndTime())
}

func FromSubtask(s *task.Subtask) SubtaskResponse {
	return SubtaskResponse{TaskResponse: fromBase(task.KindSubtask, &s.Base, s.EndTime()), EpicID: s.EpicID}
}

func FromEpic(e *task.Epic) EpicResponse {
	subtasks := e.SubtaskIDs
	if subtasks == nil {
		subtasks = []int{}
	}
	return EpicResponse{TaskResponse: fromBase(task.KindEpic, &e.Base, e.EndTime()), Subtasks: subtasks}
}

// FromItem - ответ для смешанных списков: истории и расписания
func FromItem(item task.Item) any {
	switch v := item.(type) {
	case *task.Task:
		return FromTask(v)
	case *task.Epic:
		return FromEpic(v)
	case *task.Subtask:
		return FromSubtask(v)
	}
	return nil
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func FromSubtaskList(subtasks []*task.Subtask) []SubtaskResponse {
	result := make([]SubtaskResponse, len(subtasks))
	for i, s := range subtasks {
		result[i] = FromSubtask(s)
	}
	return result
}

func FromEpicList(epics []*task.Epic) []EpicResponse {
	result := make([]EpicResponse, len(epics))
	for i, e := range epics {
		result[i] = FromEpic(e)
	}
	return result
}

func FromItemList(items []task.Item) []any {
	result := make([]any, len(items))
	for i, it := range items {
		result[i] = FromItem(it)
	}
	return result
}
