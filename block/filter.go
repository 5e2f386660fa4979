package block

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/arangodb/aqlcore/aqlbatch"
)

// Filter pulls from its dependency, retains the row indices whose value
// in a designated boolean register is truthy (§3 truth rule), and
// materializes a filtered batch, looping until it collects atLeast
// surviving rows or exhausts the source (spec §4.1.2). Count and
// Remaining are non-computable without running.
type Filter struct {
	dep     Block
	reg     int
	nRegs   int
	pending *aqlbatch.Batch // survivors accumulated ahead of demand
}

// NewFilter builds a Filter over dep testing register reg, where nRegs
// is the dependency's (and this block's) register width.
func NewFilter(dep Block, reg, nRegs int) *Filter {
	return &Filter{dep: dep, reg: reg, nRegs: nRegs, pending: aqlbatch.New(0, nRegs)}
}

func (f *Filter) Initialize(ctx context.Context) error { return f.dep.Initialize(ctx) }

func (f *Filter) InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error {
	f.pending.Destroy()
	f.pending = aqlbatch.New(0, f.nRegs)
	return f.dep.InitializeCursor(ctx, items, pos)
}

func (f *Filter) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	if skipping {
		return f.skipSome(ctx, atMost)
	}
	return f.produceSome(ctx, atLeast, atMost)
}

func (f *Filter) produceSome(ctx context.Context, atLeast, atMost int) (*aqlbatch.Batch, int, error) {
	for f.pending.NumRows() < atLeast || (f.pending.NumRows() == 0 && f.dep.HasMore()) {
		if err := checkCancelled(ctx); err != nil {
			return nil, 0, err
		}
		if !f.topUp(ctx, atMost) {
			break
		}
	}
	if f.pending.NumRows() == 0 {
		return nil, 0, nil
	}
	take := f.pending.NumRows()
	if atMost >= 0 && take > atMost {
		take = atMost
	}
	out, err := f.pending.SliceIndices(indexRange(take))
	if err != nil {
		return nil, 0, err
	}
	rest, err := f.pending.SliceIndices(indexRangeFrom(take, f.pending.NumRows()))
	if err != nil {
		return nil, 0, err
	}
	f.pending.Destroy()
	f.pending = rest
	return out, 0, nil
}

func (f *Filter) skipSome(ctx context.Context, atMost int) (*aqlbatch.Batch, int, error) {
	skipped := 0
	if f.pending.NumRows() > 0 {
		drop := f.pending.NumRows()
		if drop > atMost {
			drop = atMost
		}
		rest, err := f.pending.SliceIndices(indexRangeFrom(drop, f.pending.NumRows()))
		if err != nil {
			return nil, 0, err
		}
		f.pending.Destroy()
		f.pending = rest
		skipped += drop
	}
	for skipped < atMost && f.dep.HasMore() {
		if err := checkCancelled(ctx); err != nil {
			return nil, skipped, err
		}
		depBatch, err := depGetSurvivors(ctx, f.dep, f.reg, atMost)
		if err != nil {
			return nil, skipped, err
		}
		if depBatch == nil {
			break
		}
		n := depBatch.NumRows()
		depBatch.Destroy()
		skipped += n
	}
	return nil, skipped, nil
}

// topUp pulls one dependency batch, materializes the surviving rows into
// f.pending, and reports whether the dependency produced anything.
func (f *Filter) topUp(ctx context.Context, atMost int) bool {
	want := atMost
	if want <= 0 {
		want = 1
	}
	survivors, err := depGetSurvivors(ctx, f.dep, f.reg, want)
	if err != nil || survivors == nil {
		return false
	}
	spliced, err := aqlbatch.Splice(f.nRegs, []*aqlbatch.Batch{f.pending, survivors})
	if err != nil {
		return false
	}
	f.pending.Destroy()
	survivors.Destroy()
	f.pending = spliced
	return true
}

// depGetSurvivors pulls one dependency batch of up to atMost rows and
// returns a new batch containing only the rows whose value at reg is
// truthy, destroying the dependency batch. Returns nil if the dependency
// is exhausted. The surviving row set is built as a roaring bitmap before
// being materialized into slice indices, keeping the survivor-selection
// step sparse-friendly for wide batches with few matches.
func depGetSurvivors(ctx context.Context, dep Block, reg, atMost int) (*aqlbatch.Batch, error) {
	depBatch, err := GetSome(ctx, dep, 0, atMost)
	if err != nil {
		return nil, err
	}
	if depBatch == nil {
		return nil, nil
	}
	survivors := roaring.New()
	for row := 0; row < depBatch.NumRows(); row++ {
		if depBatch.GetValue(row, reg).IsTrue() {
			survivors.Add(uint32(row))
		}
	}
	idx := make([]int, 0, survivors.GetCardinality())
	it := survivors.Iterator()
	for it.HasNext() {
		idx = append(idx, int(it.Next()))
	}
	out, err := depBatch.SliceIndices(idx)
	depBatch.Destroy()
	if err != nil {
		return nil, err
	}
	return out, nil
}

func indexRange(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func indexRangeFrom(from, to int) []int {
	if from >= to {
		return nil
	}
	idx := make([]int, to-from)
	for i := range idx {
		idx[i] = from + i
	}
	return idx
}

func (f *Filter) HasMore() bool { return f.pending.NumRows() > 0 || f.dep.HasMore() }
func (f *Filter) Count() int    { return -1 }
func (f *Filter) Remaining() int { return -1 }

func (f *Filter) Shutdown(ctx context.Context, code ShutdownCode) error {
	f.pending.Destroy()
	f.pending = aqlbatch.New(0, f.nRegs)
	return f.dep.Shutdown(ctx, code)
}
