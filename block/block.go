// Package block implements the execution-block pipeline (P): a tree of
// pull-based blocks connected by a single downstream dependency, each
// pulling batches from its dependency and producing batches for its
// consumer (spec §2, §4.1). Blocks form a closed sum of variants rather
// than an open class hierarchy — a capability set with six operations
// shared by every variant and per-variant state (spec §9 "Dynamic
// dispatch").
package block

import (
	"context"

	"github.com/arangodb/aqlcore/aqlbatch"
	"github.com/arangodb/aqlcore/aqlerrors"
)

// ShutdownCode is passed through Shutdown to every block in the tree; it
// carries no meaning at this layer beyond being forwarded.
type ShutdownCode int

// Block is the contract common to every block kind (spec §4.1
// "Contract"). Implementations transition through Constructed →
// Initialized → Cursor-positioned → Producing* → ShutDown; Shutdown is
// idempotent and forwards to the dependency.
type Block interface {
	// Initialize prepares static state and recurses into the dependency.
	Initialize(ctx context.Context) error

	// InitializeCursor rewinds the block to process a new outer row; it
	// must forward to the dependency before returning.
	InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error

	// GetOrSkipSome is the core pull primitive. With skipping false it
	// produces a batch of at least atLeast and at most atMost rows
	// (fewer, or a nil batch, once the stream is exhausted). With
	// skipping true it advances the cursor by up to atMost rows and
	// reports the number actually skipped. atLeast == 0 means "return
	// whatever is immediately available".
	GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (out *aqlbatch.Batch, skipped int, err error)

	// HasMore reports whether a subsequent pull could still produce rows.
	HasMore() bool

	// Count returns the block's total row count if known without
	// running, or -1.
	Count() int

	// Remaining returns the row count still to be produced, or -1 if not
	// computable without running.
	Remaining() int

	// Shutdown releases resources and forwards to the dependency. It is
	// idempotent.
	Shutdown(ctx context.Context, code ShutdownCode) error
}

// GetSome is the convenience wrapper over GetOrSkipSome for the common
// produce case (spec §4.1 "getSome").
func GetSome(ctx context.Context, b Block, atLeast, atMost int) (*aqlbatch.Batch, error) {
	out, _, err := b.GetOrSkipSome(ctx, atLeast, atMost, false)
	return out, err
}

// checkCancelled implements the cooperative cancellation check required
// at every row boundary inside long loops (spec §5 "Suspension points").
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return aqlerrors.Wrap(aqlerrors.Internal, ctx.Err(), "query killed")
	default:
		return nil
	}
}
