package block

import (
	"context"

	"github.com/arangodb/aqlcore/aqlbatch"
)

// Return either copies a single designated input register into a fresh
// single-register batch, or, when returnInheritedResults is set, passes
// the dependency's batch through unchanged. Registers outside the output
// must be cleared before the batch is returned (spec §4.1.4).
type Return struct {
	dep                    Block
	reg                    int
	returnInheritedResults bool
}

// NewReturn builds a Return over dep, copying register reg into a
// single-register output batch.
func NewReturn(dep Block, reg int) *Return {
	return &Return{dep: dep, reg: reg}
}

// NewReturnInherited builds a Return that forwards dep's batch unchanged
// (spec §4.1.4).
func NewReturnInherited(dep Block) *Return {
	return &Return{dep: dep, returnInheritedResults: true}
}

func (r *Return) Initialize(ctx context.Context) error { return r.dep.Initialize(ctx) }

func (r *Return) InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error {
	return r.dep.InitializeCursor(ctx, items, pos)
}

func (r *Return) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	in, skipped, err := r.dep.GetOrSkipSome(ctx, atLeast, atMost, skipping)
	if err != nil || skipping || in == nil {
		return nil, skipped, err
	}
	if r.returnInheritedResults {
		return in, 0, nil
	}
	out := aqlbatch.New(in.NumRows(), 1)
	for row := 0; row < in.NumRows(); row++ {
		v := in.GetValue(row, r.reg)
		in.EraseValue(row, r.reg) // transfer ownership; clears registers outside the output
		if !v.IsEmpty() {
			if err := out.SetValue(row, 0, v); err != nil {
				return nil, 0, err
			}
		}
	}
	in.Destroy()
	return out, 0, nil
}

func (r *Return) HasMore() bool  { return r.dep.HasMore() }
func (r *Return) Count() int     { return r.dep.Count() }
func (r *Return) Remaining() int { return r.dep.Remaining() }

func (r *Return) Shutdown(ctx context.Context, code ShutdownCode) error {
	return r.dep.Shutdown(ctx, code)
}
