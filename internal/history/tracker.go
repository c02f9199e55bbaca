package history

import (
	"math"

	"taskManager/internal/models/task"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Tracker хранит последние просмотренные задачи без повторов.
// Порядок - от самой старой к самой свежей, вставка/удаление/перенос за O(1).
type Tracker struct {
	limit int
	list  *simplelru.LRU[int, task.Item]
}

// NewTracker с limit <= 0 создаёт неограниченную историю,
// с limit > 0 при переполнении вытесняется самая старая запись.
func NewTracker(limit int) *Tracker {
	size := limit
	if size <= 0 {
		size = math.MaxInt
	}
	// ошибка возможна только при size <= 0
	list, _ := simplelru.NewLRU[int, task.Item](size, nil)
	return &Tracker{limit: limit, list: list}
}

func (h *Tracker) Add(item task.Item) {
	if task.IsNil(item) {
		return
	}
	// повторное добавление переносит запись в конец
	h.list.Remove(item.Core().ID)
	h.list.Add(item.Core().ID, item.Clone())
}

func (h *Tracker) Remove(id int) {
	h.list.Remove(id)
}

func (h *Tracker) History() []task.Item {
	values := h.list.Values()
	res := make([]task.Item, 0, len(values))
	for _, v := range values {
		res = append(res, v.Clone())
	}
	return res
}

func (h *Tracker) Len() int {
	return h.list.Len()
}

func (h *Tracker) Limit() int {
	return h.limit
}

func (h *Tracker) Clear() {
	h.list.Purge()
}

func (h *Tracker) Clone() *Tracker {
	c := NewTracker(h.limit)
	for _, v := range h.list.Values() {
		c.list.Add(v.Core().ID, v)
	}
	return c
}
