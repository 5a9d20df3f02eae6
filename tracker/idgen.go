package tracker

import (
	"strconv"
	"sync"
)

// Identity is an opaque handle assigned to a region when it is first
// submitted for tracking.  Tracker engines echo it back on every observation
type Identity uint64

// String returns the identity as a decimal string
func (id Identity) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDGenerator is a struct to hold a counter for generating the next
// incremental Identity
type IDGenerator struct {
	id uint64
	sync.Mutex
}

// NewIDGenerator returns a generator whose first Identity is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next incremental Identity
func (g *IDGenerator) GetNext() Identity {
	g.Lock()
	defer g.Unlock()
	g.id++
	return Identity(g.id)
}

// Reset restarts numbering from 1
func (g *IDGenerator) Reset() {
	g.Lock()
	defer g.Unlock()
	g.id = 0
}
