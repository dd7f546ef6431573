package testutil

import (
	"fmt"
	"sync"
	"time"

	"previewhub/internal/hub"
)

// StubClock is a hub.Clock that only moves when told to.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2026-03-04 09:41 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2026, 3, 4, 9, 41, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Use a day or more to change registry dates.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator hands out "<prefix>-1", "<prefix>-2", ...
type StubIDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewStubIDGenerator uses "id" as the prefix.
func NewStubIDGenerator() *StubIDGenerator {
	return NewPrefixedIDGenerator("id")
}

func NewPrefixedIDGenerator(prefix string) *StubIDGenerator {
	return &StubIDGenerator{prefix: prefix}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

var (
	_ hub.Clock       = (*StubClock)(nil)
	_ hub.IDGenerator = (*StubIDGenerator)(nil)
)
