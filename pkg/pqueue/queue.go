package pqueue

import (
	"sort"
)

// WithCap bounds the queue; items ranked past the cap are dropped on Push.
func WithCap(size uint) Option {
	return func(q *Queue) {
		q.cap = int(size)
	}
}

type Option func(*Queue)

type item struct {
	value interface{}
	prior float64
	key   int
}

func New(opts ...Option) *Queue {
	p := &Queue{cap: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Queue keeps items sorted by ascending priority. Equal priorities are ordered
// by the ascending integer key given on Push, so the order never depends on
// the insertion sequence.
type Queue struct {
	cap   int
	items []item
}

// Push inserts val and reports whether it was kept.
func (q *Queue) Push(val interface{}, priority float64, key int) bool {
	in := item{value: val, prior: priority, key: key}
	pos := sort.Search(len(q.items), func(i int) bool {
		return less(in, q.items[i])
	})
	if q.cap >= 0 && pos >= q.cap {
		return false
	}
	q.items = append(q.items, item{})
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = in
	if q.cap >= 0 && len(q.items) > q.cap {
		q.items = q.items[:q.cap]
	}
	return true
}

func (q *Queue) Len() int { return len(q.items) }

func less(a, b item) bool {
	if a.prior != b.prior {
		return a.prior < b.prior
	}
	return a.key < b.key
}

func (q *Queue) Seek(idx int) (interface{}, float64) {
	item := q.items[idx]
	return item.value, item.prior
}
