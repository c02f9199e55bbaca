package task

import (
	"time"
)

type Option func(*Base)

func apply(b *Base, opts []Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
}

func WithID(id int) Option {
	return func(b *Base) {
		b.ID = id
	}
}

func WithDuration(d time.Duration) Option {
	return func(b *Base) {
		b.Duration = &d
	}
}

func WithStartTime(start time.Time) Option {
	if start.IsZero() {
		return nil
	}
	return func(b *Base) {
		b.StartTime = &start
	}
}

func WithSchedule(start time.Time, d time.Duration) Option {
	return func(b *Base) {
		if !start.IsZero() {
			b.StartTime = &start
		}
		b.Duration = &d
	}
}

type equalConfig struct {
	schedule bool
}

type EqualOption func(*equalConfig)

// IncludeSchedule - сравнивать также длительность и время начала
func IncludeSchedule() EqualOption {
	return func(c *equalConfig) {
		c.schedule = true
	}
}

// Equal сравнивает тип, id, название, описание и статус.
// Поля расписания не сравниваются без IncludeSchedule: снимок из истории
// равен задаче даже после сдвига по времени.
func Equal(a, b Item, opts ...EqualOption) bool {
	if a == nil || b == nil {
		return a == b
	}
	cfg := equalConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	x, y := a.Core(), b.Core()
	if a.Kind() != b.Kind() ||
		x.ID != y.ID ||
		x.Name != y.Name ||
		x.Description != y.Description ||
		x.Status != y.Status {
		return false
	}
	if !cfg.schedule {
		return true
	}
	return equalDuration(x.Duration, y.Duration) && equalTime(x.StartTime, y.StartTime)
}

func equalDuration(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
