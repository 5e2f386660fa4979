package block

import (
	"context"

	"github.com/arangodb/aqlcore/aqlbatch"
	"github.com/arangodb/aqlcore/aqlvalue"
)

// Subquery has a main dependency and a subquery root block. For each row
// the main dependency produces, it positions the subquery cursor at that
// row and drains the subquery in fixed-size batches, writing the result
// as a DOCVEC into a designated output register (spec §4.1.6). On
// failure during drain, all batches collected so far for the failing row
// are destroyed before the error propagates. The subquery is always
// re-evaluated per row — the "is constant" re-use optimization named in
// spec §9's open questions is not implemented.
type Subquery struct {
	dep       Block
	root      Block
	outReg    int
	nRegs     int
	batchSize int
}

// NewSubquery builds a Subquery over dep, draining root per row into
// outReg, chunking the drain in batchSize-row pulls.
func NewSubquery(dep, root Block, outReg, nRegs, batchSize int) *Subquery {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Subquery{dep: dep, root: root, outReg: outReg, nRegs: nRegs, batchSize: batchSize}
}

func (s *Subquery) Initialize(ctx context.Context) error {
	if err := s.dep.Initialize(ctx); err != nil {
		return err
	}
	return s.root.Initialize(ctx)
}

func (s *Subquery) InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error {
	return s.dep.InitializeCursor(ctx, items, pos)
}

func (s *Subquery) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	if skipping {
		return s.dep.GetOrSkipSome(ctx, atLeast, atMost, true)
	}

	in, _, err := s.dep.GetOrSkipSome(ctx, atLeast, atMost, false)
	if err != nil || in == nil {
		return nil, 0, err
	}

	for row := 0; row < in.NumRows(); row++ {
		if err := checkCancelled(ctx); err != nil {
			in.Destroy()
			return nil, 0, err
		}

		if err := s.root.InitializeCursor(ctx, in, row); err != nil {
			in.Destroy()
			return nil, 0, err
		}

		batches, err := s.drainSubquery(ctx)
		if err != nil {
			for _, b := range batches {
				b.Destroy()
			}
			in.Destroy()
			return nil, 0, err
		}

		docvecBatches := make([]aqlvalue.DocVecBatch, len(batches))
		for i, b := range batches {
			docvecBatches[i] = b
		}
		if err := in.SetValue(row, s.outReg, aqlvalue.NewDocVec(docvecBatches)); err != nil {
			for _, b := range batches {
				b.Destroy()
			}
			in.Destroy()
			return nil, 0, err
		}
	}
	return in, 0, nil
}

// drainSubquery drains the subquery root in fixed-size chunks until
// exhausted (spec §4.1.6 "drains the subquery in batches of a fixed
// DefaultBatchSize").
func (s *Subquery) drainSubquery(ctx context.Context) ([]*aqlbatch.Batch, error) {
	var out []*aqlbatch.Batch
	for s.root.HasMore() {
		if err := checkCancelled(ctx); err != nil {
			return out, err
		}
		chunk, err := GetSome(ctx, s.root, 0, s.batchSize)
		if err != nil {
			return out, err
		}
		if chunk == nil {
			break
		}
		out = append(out, chunk)
	}
	return out, nil
}

func (s *Subquery) HasMore() bool  { return s.dep.HasMore() }
func (s *Subquery) Count() int     { return -1 }
func (s *Subquery) Remaining() int { return -1 }

func (s *Subquery) Shutdown(ctx context.Context, code ShutdownCode) error {
	if err := s.root.Shutdown(ctx, code); err != nil {
		return err
	}
	return s.dep.Shutdown(ctx, code)
}
