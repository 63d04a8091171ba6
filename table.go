package apm

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownHandle is returned for handles a Table does not hold.
var ErrUnknownHandle = errors.New("apm: unknown handle")

// HandleID identifies a Processor held by a Table. Zero is never issued.
type HandleID uint64

// Table maps opaque handles to processors for hosts that cannot hold Go
// pointers. Table operations are safe for concurrent use; the processors
// themselves are not, so a handle must only be used by one goroutine at a
// time.
type Table struct {
	mu    sync.Mutex
	procs map[HandleID]*Processor
	next  HandleID
	opts  []Option
}

// NewTable returns an empty Table. opts are applied to every Create.
func NewTable(opts ...Option) *Table {
	return &Table{
		procs: make(map[HandleID]*Processor),
		opts:  opts,
	}
}

// Create builds a Processor and returns its handle.
func (t *Table) Create(cfg Config, opts ...Option) (HandleID, error) {
	all := make([]Option, 0, len(t.opts)+len(opts))
	all = append(all, t.opts...)
	all = append(all, opts...)

	p, err := Create(cfg, all...)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.procs[t.next] = p
	return t.next, nil
}

// Get returns the Processor for id, or nil when id is unknown. All
// Processor methods accept nil, so the result can be used directly.
func (t *Table) Get(id HandleID) *Processor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.procs[id]
}

// Destroy removes id and destroys its Processor. Destroying an unknown or
// already destroyed handle returns ErrUnknownHandle.
func (t *Table) Destroy(id HandleID) error {
	t.mu.Lock()
	p, ok := t.procs[id]
	delete(t.procs, id)
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}
	p.Destroy()
	return nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs)
}

// Close destroys every processor still held.
func (t *Table) Close() {
	t.mu.Lock()
	procs := t.procs
	t.procs = make(map[HandleID]*Processor)
	t.mu.Unlock()

	for _, p := range procs {
		p.Destroy()
	}
}
