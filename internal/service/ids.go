package service

import (
	"sync"
	"time"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// idGenerator hands out millisecond timestamps as ids, bumping by one
// whenever two ids would land in the same millisecond (or the clock steps
// backwards). Ids are therefore strictly increasing for the life of the
// generator.
//
// Observe lets a store seed the generator with the largest id it already
// holds, so ids stay unique across restarts even if the clock is behind.
type idGenerator struct {
	mu   sync.Mutex
	now  Clock
	last int64
}

func newIDGenerator(now Clock) *idGenerator {
	return &idGenerator{now: now}
}

func (g *idGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe records an id that already exists so Next never reissues it.
func (g *idGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
