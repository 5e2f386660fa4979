// Package aqlbatch implements the item batch (B): a dense row-major
// matrix of query values flowing between execution blocks. It owns the
// destruction discipline for heterogeneous, possibly-shared query
// values: every distinct value is freed exactly once, using an
// identity-keyed "handed-on" set exactly as spec.md §3/§9 requires.
package aqlbatch

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/arangodb/aqlcore/aqlerrors"
	"github.com/arangodb/aqlcore/aqlvalue"
)

// Batch is an nRows × nRegs matrix of query values. The zero value is not
// usable; construct with New.
type Batch struct {
	nRegs    int
	rows     [][]aqlvalue.Value
	docColl  []string
	handedOn mapset.Set[any]
}

// New allocates a batch of nRows rows and nRegs registers, every cell
// EMPTY.
func New(nRows, nRegs int) *Batch {
	b := &Batch{
		nRegs:    nRegs,
		rows:     make([][]aqlvalue.Value, nRows),
		docColl:  make([]string, nRegs),
		handedOn: mapset.NewThreadUnsafeSet[any](),
	}
	for i := range b.rows {
		b.rows[i] = make([]aqlvalue.Value, nRegs)
	}
	return b
}

// NumRows reports the current row count. Satisfies aqlvalue.DocVecBatch.
func (b *Batch) NumRows() int { return len(b.rows) }

// NumRegs reports the fixed register width.
func (b *Batch) NumRegs() int { return b.nRegs }

// DocColl reports the source collection annotation for reg, meaningful
// only for registers carrying SHAPED values.
func (b *Batch) DocColl(reg int) string { return b.docColl[reg] }

// SetDocColl annotates reg with its source collection name.
func (b *Batch) SetDocColl(reg int, collection string) { b.docColl[reg] = collection }

// GetValue returns the value at (row, reg).
func (b *Batch) GetValue(row, reg int) aqlvalue.Value {
	return b.rows[row][reg]
}

// SetValue writes v into (row, reg). The target cell must be EMPTY —
// spec §4.3: "setValue into a non-empty cell is a defect."
func (b *Batch) SetValue(row, reg int, v aqlvalue.Value) error {
	if !b.rows[row][reg].IsEmpty() {
		return aqlerrors.Internalf("setValue into non-empty cell (row=%d, reg=%d)", row, reg)
	}
	b.rows[row][reg] = v
	return nil
}

// EraseValue nulls (row, reg) to EMPTY without freeing it, recording the
// erased value's identity as handed on so a later Destroy does not
// re-free it via another cell that still aliases it.
func (b *Batch) EraseValue(row, reg int) {
	v := b.rows[row][reg]
	if key := v.IdentityKey(); key != nil {
		b.handedOn.Add(key)
	}
	b.rows[row][reg] = aqlvalue.NewEmpty()
}

// Shrink reduces the row count to nRows, dropping the excess rows'
// cells without freeing them (spec §4.3). Shrinking to more than the
// current row count is a defect.
func (b *Batch) Shrink(nRows int) error {
	if nRows > len(b.rows) {
		return aqlerrors.Internalf("shrink(%d) exceeds current row count %d", nRows, len(b.rows))
	}
	b.rows = b.rows[:nRows]
	return nil
}

// Slice produces a new batch containing deep clones of rows [from, to).
// Within the slice, each distinct source value is cloned exactly once —
// an identity-keyed cache — so cells that alias the same source payload
// remain aliased in the result (spec §3 "Clone identity sharing").
func (b *Batch) Slice(from, to int) (*Batch, error) {
	if from < 0 || to > len(b.rows) || from > to {
		return nil, aqlerrors.Internalf("slice(%d, %d) out of range for %d rows", from, to, len(b.rows))
	}
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return b.SliceIndices(idx)
}

// SliceIndices is the general form of Slice: it selects rows by explicit
// index, preserving selection order (spec §5 "slice preserves selection
// order").
func (b *Batch) SliceIndices(indices []int) (*Batch, error) {
	out := New(len(indices), b.nRegs)
	copy(out.docColl, b.docColl)

	cloneCache := make(map[any]aqlvalue.Value)
	for outRow, srcRow := range indices {
		if srcRow < 0 || srcRow >= len(b.rows) {
			return nil, aqlerrors.Internalf("slice index %d out of range for %d rows", srcRow, len(b.rows))
		}
		for reg := 0; reg < b.nRegs; reg++ {
			src := b.rows[srcRow][reg]
			if src.IsEmpty() {
				continue
			}
			key := src.IdentityKey()
			cloned, ok := cloneCache[key]
			if !ok {
				cloned = src.Clone()
				cloneCache[key] = cloned
			}
			out.rows[outRow][reg] = cloned
		}
	}
	return out, nil
}

// Splice concatenates batches sharing the same register width,
// transferring ownership of every cell and nulling the originals. All
// input batches become empty husks that the caller is responsible for
// destroying (spec §4.3: "caller destroys the empty husks"). Splicing
// zero batches yields an empty batch of the given register width.
func Splice(nRegs int, batches []*Batch) (*Batch, error) {
	out := New(0, nRegs)
	for _, in := range batches {
		if in.nRegs != nRegs {
			return nil, aqlerrors.Internalf("splice width mismatch: expected %d, got %d", nRegs, in.nRegs)
		}
		out.rows = append(out.rows, in.rows...)
		in.rows = make([][]aqlvalue.Value, 0)
	}
	if len(batches) > 0 {
		copy(out.docColl, batches[0].docColl)
	}
	return out, nil
}

// Destroy walks every cell and destroys each distinct value exactly
// once, skipping values recorded as already handed on to another batch
// (spec §3/§9 — the single most load-bearing invariant in this
// component). Freeing a value twice is a defect this method exists
// specifically to prevent.
func (b *Batch) Destroy() {
	seen := mapset.NewThreadUnsafeSet[any]()
	for _, row := range b.rows {
		for reg := range row {
			v := &row[reg]
			if v.IsEmpty() {
				continue
			}
			key := v.IdentityKey()
			if b.handedOn.Contains(key) || seen.Contains(key) {
				v.Erase()
				continue
			}
			seen.Add(key)
			v.Destroy()
		}
	}
	b.rows = nil
}

// MarkHandedOn records that the value at (row, reg) has been adopted by
// another batch (e.g. a sibling slice) and must not be freed when this
// batch is destroyed (spec §5 "Shared resources").
func (b *Batch) MarkHandedOn(row, reg int) {
	v := b.rows[row][reg]
	if key := v.IdentityKey(); key != nil {
		b.handedOn.Add(key)
	}
}

func (b *Batch) String() string {
	return fmt.Sprintf("Batch{rows=%d, regs=%d}", len(b.rows), b.nRegs)
}
