package block

import (
	"context"

	"github.com/arangodb/aqlcore/aqlbatch"
	"github.com/arangodb/aqlcore/aqlvalue"
)

// Singleton is a leaf block holding at most one row of externally
// supplied register values (spec §4.1.1). Subquery uses it as the root
// of a subquery plan, positioning it at the outer row before each drain.
type Singleton struct {
	nRegs    int
	row      []aqlvalue.Value
	produced bool
}

// NewSingleton allocates a Singleton over nRegs registers, initially
// empty.
func NewSingleton(nRegs int) *Singleton {
	return &Singleton{nRegs: nRegs, row: make([]aqlvalue.Value, nRegs)}
}

func (s *Singleton) Initialize(ctx context.Context) error { return nil }

// InitializeCursor copies items' row at pos into the internal buffer,
// cloning each value so the singleton's lifetime is independent of the
// caller's batch (spec §4.1.1).
func (s *Singleton) InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error {
	for _, v := range s.row {
		if !v.IsEmpty() {
			v2 := v
			v2.Destroy()
		}
	}
	s.row = make([]aqlvalue.Value, s.nRegs)
	if items != nil {
		n := items.NumRegs()
		if n > s.nRegs {
			n = s.nRegs
		}
		for reg := 0; reg < n; reg++ {
			src := items.GetValue(pos, reg)
			if !src.IsEmpty() {
				s.row[reg] = src.Clone()
			}
		}
	}
	s.produced = false
	return nil
}

// SetRow installs values directly, taking ownership of them — used when
// constructing the outermost Singleton of a top-level query (no outer
// row to inherit from).
func (s *Singleton) SetRow(values []aqlvalue.Value) {
	s.row = values
	s.produced = false
}

// GetOrSkipSome emits exactly one batch of width nRegs populated from the
// buffer, then reports exhausted (spec §4.1.1).
func (s *Singleton) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	if s.produced {
		return nil, 0, nil
	}
	s.produced = true
	if skipping {
		return nil, 1, nil
	}
	out := aqlbatch.New(1, s.nRegs)
	for reg, v := range s.row {
		if v.IsEmpty() {
			continue
		}
		if err := out.SetValue(0, reg, v.Clone()); err != nil {
			return nil, 0, err
		}
	}
	return out, 0, nil
}

func (s *Singleton) HasMore() bool { return !s.produced }
func (s *Singleton) Count() int    { return 1 }
func (s *Singleton) Remaining() int {
	if s.produced {
		return 0
	}
	return 1
}

func (s *Singleton) Shutdown(ctx context.Context, code ShutdownCode) error {
	for _, v := range s.row {
		if !v.IsEmpty() {
			v2 := v
			v2.Destroy()
		}
	}
	s.row = nil
	return nil
}
