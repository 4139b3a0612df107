package batch

import (
	"context"
	"fmt"
)

// DefaultSize is the chunk size used when none is given. It matches the
// table store's per-call limit.
const DefaultSize = 50

// State is a writer state.
type State int

const (
	StatePending State = iota
	StateWriting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress reports how far a write got.
type Progress struct {
	State State

	// Committed counts items whose chunk was persisted.
	Committed int

	// Remaining counts items not persisted, including the failed chunk.
	Remaining int

	// Chunks counts persisted chunks.
	Chunks int
}

// PersistFunc writes one chunk. It must apply the chunk completely or fail.
type PersistFunc[T any] func(ctx context.Context, chunk []T) error

// ChunkEvent describes a finished chunk, successful or not.
type ChunkEvent struct {
	Index int
	Size  int
	Err   error
}

// Option configures Write.
type Option func(*options)

type options struct {
	size    int
	onChunk func(ChunkEvent)
}

// WithSize sets the maximum chunk size. Values below 1 are ignored.
func WithSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// OnChunk registers an observer called after every chunk.
func OnChunk(fn func(ChunkEvent)) Option {
	return func(o *options) {
		o.onChunk = fn
	}
}

// Chunks partitions items into consecutive slices of at most size elements.
// The slices share items' backing array.
func Chunks[T any](items []T, size int) [][]T {
	if size < 1 {
		size = DefaultSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for len(items) > 0 {
		n := min(size, len(items))
		chunks = append(chunks, items[:n:n])
		items = items[n:]
	}
	return chunks
}

// Write persists items chunk by chunk, in order, one chunk in flight at a
// time. It returns a *WriteError when a chunk fails or ctx is cancelled
// between chunks; already persisted chunks are left in place.
func Write[T any](ctx context.Context, items []T, persist PersistFunc[T], opts ...Option) (Progress, error) {
	o := options{size: DefaultSize}
	for _, opt := range opts {
		opt(&o)
	}

	progress := Progress{State: StatePending, Remaining: len(items)}
	queue := items

	for {
		if len(queue) == 0 {
			progress.State = StateDone
			return progress, nil
		}

		if err := ctx.Err(); err != nil {
			progress.State = StateFailed
			return progress, &WriteError{
				ChunkIndex: progress.Chunks,
				Committed:  progress.Committed,
				Remaining:  progress.Remaining,
				Err:        err,
			}
		}

		n := min(o.size, len(queue))
		chunk := queue[:n:n]
		progress.State = StateWriting

		err := persist(ctx, chunk)
		if o.onChunk != nil {
			o.onChunk(ChunkEvent{Index: progress.Chunks, Size: n, Err: err})
		}
		if err != nil {
			progress.State = StateFailed
			return progress, &WriteError{
				ChunkIndex: progress.Chunks,
				Committed:  progress.Committed,
				Remaining:  progress.Remaining,
				Err:        err,
			}
		}

		progress.Chunks++
		progress.Committed += n
		progress.Remaining -= n
		progress.State = StatePending
		queue = queue[n:]
	}
}
