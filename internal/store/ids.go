package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Id prefixes, one per object kind.
const (
	prefixTable  = "tbl"
	prefixField  = "fld"
	prefixRecord = "rec"
)

// IDGenerator mints identifiers for new tables, fields, and records.
type IDGenerator interface {
	Generate(prefix string) string
}

// UUIDv7Generator generates time-sortable ids: the prefix followed by a
// UUIDv7 in hex without hyphens.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// SequentialGenerator produces prefix0001, prefix0002, ... per prefix.
// Used for deterministic test output.
type SequentialGenerator struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequentialGenerator creates a generator whose counters start at 1.
func NewSequentialGenerator() *SequentialGenerator {
	return &SequentialGenerator{next: make(map[string]int)}
}

// Generate returns the next id for prefix.
func (g *SequentialGenerator) Generate(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next[prefix]++
	return fmt.Sprintf("%s%04d", prefix, g.next[prefix])
}
