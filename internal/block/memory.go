package block

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryTree is an in-memory Tree implementation used by the demo binary
// and by tests. IDs are random UUIDs, matching the host document's opaque
// identifier contract.
type MemoryTree struct {
	mu     sync.RWMutex
	blocks map[ID]Spec
	closed bool
}

// NewMemoryTree creates an empty in-memory block tree.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{
		blocks: make(map[ID]Spec),
	}
}

// Create creates a new block and returns its ID.
func (t *MemoryTree) Create(ctx context.Context, tool string, data string) (ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", ErrTreeClosed
	}

	id := ID(uuid.NewString())
	t.blocks[id] = Spec{Tool: tool, Data: data}
	return id, nil
}

// Destroy removes a block. Unknown IDs are ignored.
func (t *MemoryTree) Destroy(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.blocks, id)
}

// Resolve returns a block's spec, or false if it does not exist.
func (t *MemoryTree) Resolve(id ID) (Spec, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	spec, ok := t.blocks[id]
	return spec, ok
}

// Len returns the number of live blocks.
func (t *MemoryTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.blocks)
}

// Close marks the tree closed; subsequent Create calls fail.
func (t *MemoryTree) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}
