package model

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identities for new records.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDv7Generator generates time-sortable UUIDv7 identities.
//
// UUIDv7 embeds a millisecond timestamp in the most significant bits, so
// records created later get identities that sort later.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID panics if the random source fails, which does not happen in practice.
func (UUIDv7Generator) NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// FixedGenerator returns predetermined identities in order.
//
//	gen := NewFixedGenerator(id1, id2)
//	gen.NewID() // id1
//	gen.NewID() // id2
//	gen.NewID() // panic: all identities exhausted
type FixedGenerator struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

func NewFixedGenerator(ids ...uuid.UUID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewID panics once every identity has been handed out so a test that
// creates more records than it planned for fails loudly.
func (g *FixedGenerator) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all identities exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
