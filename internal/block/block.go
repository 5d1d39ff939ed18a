// Package block defines the host document's block tree collaborator.
//
// The table engine never owns block lifetime. Cells hold ordered ID
// references into a tree owned by the host document; the tree is consumed
// through the narrow Tree interface so the engine can be tested against an
// in-memory implementation.
package block

import (
	"context"
	"errors"
)

// ID is an opaque identifier for a block owned by the host document.
type ID string

// Spec describes a block to be created: the tool that renders it and its
// serialized initial data.
type Spec struct {
	Tool string
	Data string
}

// Tree is the narrow interface the table engine consumes from the host
// document's block tree.
type Tree interface {
	// Create creates a new child block and returns its ID. Creation may be
	// asynchronous in the host; implementations must not return until the
	// block is resolvable.
	Create(ctx context.Context, tool string, data string) (ID, error)

	// Destroy removes a block. Destroying an unknown ID is not an error.
	Destroy(id ID)

	// Resolve returns a block's serializable data. The second return is
	// false when the block does not exist (deleted elsewhere).
	Resolve(id ID) (Spec, bool)
}

// ErrTreeClosed is returned by Create after the tree has been shut down.
var ErrTreeClosed = errors.New("block: tree closed")

// DestroyUnless destroys each id for which keep returns false.
// It is the shared release path for overwritten or cleared cell content:
// a block survives only while some cell still references it.
func DestroyUnless(t Tree, ids []ID, keep func(ID) bool) {
	for _, id := range ids {
		if keep != nil && keep(id) {
			continue
		}
		t.Destroy(id)
	}
}
