package aqlbatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arangodb/aqlcore/aqlvalue"
)

func TestSetValueRejectsNonEmptyCell(t *testing.T) {
	b := New(1, 1)
	require.NoError(t, b.SetValue(0, 0, aqlvalue.NewJSON(float64(1))))

	err := b.SetValue(0, 0, aqlvalue.NewJSON(float64(2)))
	assert.Error(t, err)
}

func TestShrinkRejectsGrowth(t *testing.T) {
	b := New(2, 1)
	err := b.Shrink(3)
	assert.Error(t, err)
}

func TestShrinkDropsWithoutFreeing(t *testing.T) {
	b := New(2, 1)
	require.NoError(t, b.SetValue(1, 0, aqlvalue.NewJSON(float64(7))))

	require.NoError(t, b.Shrink(1))
	assert.Equal(t, 1, b.NumRows())
}

func TestSliceClonesEachDistinctValueOnce(t *testing.T) {
	b := New(2, 2)
	shared := aqlvalue.NewJSON(map[string]any{"x": float64(1)})
	require.NoError(t, b.SetValue(0, 0, shared))
	require.NoError(t, b.SetValue(0, 1, shared)) // aliasing cell, same identity
	require.NoError(t, b.SetValue(1, 0, aqlvalue.NewJSON(float64(2))))

	out, err := b.Slice(0, 1)
	require.NoError(t, err)

	v0 := out.GetValue(0, 0)
	v1 := out.GetValue(0, 1)
	assert.Equal(t, v0.IdentityKey(), v1.IdentityKey(), "aliased source cells must clone to the same identity")
}

func TestSliceIndicesPreservesSelectionOrder(t *testing.T) {
	b := New(3, 1)
	require.NoError(t, b.SetValue(0, 0, aqlvalue.NewJSON(float64(10))))
	require.NoError(t, b.SetValue(1, 0, aqlvalue.NewJSON(float64(20))))
	require.NoError(t, b.SetValue(2, 0, aqlvalue.NewJSON(float64(30))))

	out, err := b.SliceIndices([]int{2, 0})
	require.NoError(t, err)

	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, float64(30), out.GetValue(0, 0).JSON())
	assert.Equal(t, float64(10), out.GetValue(1, 0).JSON())
}

func TestSpliceConcatenatesAndNullsOriginals(t *testing.T) {
	a := New(1, 1)
	require.NoError(t, a.SetValue(0, 0, aqlvalue.NewJSON(float64(1))))
	bb := New(1, 1)
	require.NoError(t, bb.SetValue(0, 0, aqlvalue.NewJSON(float64(2))))

	out, err := Splice(1, []*Batch{a, bb})
	require.NoError(t, err)

	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, 0, a.NumRows())
	assert.Equal(t, 0, bb.NumRows())
}

func TestSpliceRejectsWidthMismatch(t *testing.T) {
	a := New(1, 1)
	bb := New(1, 2)

	_, err := Splice(1, []*Batch{a, bb})
	assert.Error(t, err)
}

func TestSpliceOfZeroBatchesYieldsEmptyBatch(t *testing.T) {
	out, err := Splice(3, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumRows())
	assert.Equal(t, 3, out.NumRegs())
}

func TestDestroyFreesEachDistinctValueOnce(t *testing.T) {
	destroyCount := 0
	shared := aqlvalue.NewDocVec([]aqlvalue.DocVecBatch{countingBatch{&destroyCount}})

	b := New(1, 2)
	require.NoError(t, b.SetValue(0, 0, shared))
	// A second cell aliasing the SAME identity would need MarkHandedOn
	// discipline in a real pipeline; Destroy itself must still never
	// double-free within one batch even if callers mis-set two cells to
	// values sharing one payload via Clone-free aliasing.
	require.NoError(t, b.SetValue(0, 1, shared))
	b.Destroy()

	assert.Equal(t, 1, destroyCount)
}

func TestHandedOnValueIsNotDestroyedTwice(t *testing.T) {
	destroyCount := 0
	shared := aqlvalue.NewDocVec([]aqlvalue.DocVecBatch{countingBatch{&destroyCount}})

	owner := New(1, 1)
	require.NoError(t, owner.SetValue(0, 0, shared))

	borrower := New(1, 1)
	require.NoError(t, borrower.SetValue(0, 0, shared))
	borrower.MarkHandedOn(0, 0)

	borrower.Destroy()
	assert.Equal(t, 0, destroyCount, "handed-on batch must not free a value it does not own")

	owner.Destroy()
	assert.Equal(t, 1, destroyCount)
}

type countingBatch struct{ n *int }

func (c countingBatch) Destroy()      { *c.n++ }
func (c countingBatch) NumRows() int { return 0 }
