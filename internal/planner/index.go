package planner

import (
	"sort"
	"time"

	"taskManager/internal/models/task"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// IntervalOf возвращает интервал задачи, у которой заданы начало и длительность
func IntervalOf(b *task.Base) (Interval, bool) {
	if !b.Scheduled() {
		return Interval{}, false
	}
	return Interval{Start: *b.StartTime, End: b.StartTime.Add(*b.Duration)}, true
}

// Overlaps - интервалы [start, end) пересекаются.
// Касание границ пересечением не считается.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

type Entry struct {
	ID       int
	Kind     task.Kind
	Interval Interval
}

// Index - задачи и подзадачи с расписанием, по возрастанию начала,
// при равном начале - по id. Эпики сюда не попадают.
type Index struct {
	entries []Entry
	byID    map[int]Interval
}

func NewIndex() *Index {
	return &Index{byID: make(map[int]Interval)}
}

func less(a, b Entry) bool {
	if !a.Interval.Start.Equal(b.Interval.Start) {
		return a.Interval.Start.Before(b.Interval.Start)
	}
	return a.ID < b.ID
}

// Conflict ищет другую задачу, пересекающуюся с iv; запись с тем же id пропускается
func (x *Index) Conflict(id int, iv Interval) (int, bool) {
	for _, e := range x.entries {
		// дальше начала только позже - пересечений уже не будет
		if !e.Interval.Start.Before(iv.End) {
			break
		}
		if e.ID == id {
			continue
		}
		if Overlaps(e.Interval, iv) {
			return e.ID, true
		}
	}
	return 0, false
}

func (x *Index) Put(id int, kind task.Kind, iv Interval) {
	x.Remove(id)

	e := Entry{ID: id, Kind: kind, Interval: iv}
	pos := sort.Search(len(x.entries), func(i int) bool {
		return less(e, x.entries[i])
	})
	x.entries = append(x.entries, Entry{})
	copy(x.entries[pos+1:], x.entries[pos:])
	x.entries[pos] = e
	x.byID[id] = iv
}

func (x *Index) Remove(id int) {
	if _, ok := x.byID[id]; !ok {
		return
	}
	delete(x.byID, id)
	for i, e := range x.entries {
		if e.ID == id {
			x.entries = append(x.entries[:i], x.entries[i+1:]...)
			return
		}
	}
}

func (x *Index) Contains(id int) bool {
	_, ok := x.byID[id]
	return ok
}

func (x *Index) Ordered() []Entry {
	return append([]Entry{}, x.entries...)
}

func (x *Index) Len() int {
	return len(x.entries)
}

func (x *Index) Clear() {
	x.entries = nil
	x.byID = make(map[int]Interval)
}

func (x *Index) Clone() *Index {
	c := &Index{
		entries: append([]Entry{}, x.entries...),
		byID:    make(map[int]Interval, len(x.byID)),
	}
	for id, iv := range x.byID {
		c.byID[id] = iv
	}
	return c
}
