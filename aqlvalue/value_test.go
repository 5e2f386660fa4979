package aqlvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTrue(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"bool true", NewJSON(true), true},
		{"bool false", NewJSON(false), false},
		{"nonzero number", NewJSON(float64(1)), true},
		{"zero number", NewJSON(float64(0)), false},
		{"nonempty string", NewJSON("x"), true},
		{"empty string", NewJSON(""), false},
		{"null", NewJSON(nil), false},
		{"empty value", NewEmpty(), false},
		{"shaped is always falsy", NewShaped(&ShapedRef{Collection: "c", Key: "k"}), false},
		{"range is always falsy", NewRange(1, 5), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.IsTrue())
		})
	}
}

func TestIdentityKeyStableAcrossCalls(t *testing.T) {
	v := NewJSON(map[string]any{"a": float64(1)})

	k1 := v.IdentityKey()
	k2 := v.IdentityKey()
	assert.Equal(t, k1, k2)
	assert.NotNil(t, k1)

	// Must be a comparable type usable as a Go map key; a non-comparable
	// payload (map/slice) boxed directly would panic here.
	set := map[any]bool{}
	assert.NotPanics(t, func() { set[k1] = true })
}

func TestIdentityKeyDistinguishesDistinctValues(t *testing.T) {
	a := NewJSON(float64(1))
	b := NewJSON(float64(1))
	assert.NotEqual(t, a.IdentityKey(), b.IdentityKey(), "structurally equal but distinct payloads must not alias")
}

func TestIdentityKeyAliasesSharedPayload(t *testing.T) {
	a := NewJSON(float64(1))
	b := a // Go value copy; still aliases the same *jsonBox
	assert.Equal(t, a.IdentityKey(), b.IdentityKey())
}

func TestEmptyIdentityKeyIsNil(t *testing.T) {
	assert.Nil(t, NewEmpty().IdentityKey())
}

type fakeBatch struct {
	destroyed *bool
	rows      int
}

func (f fakeBatch) Destroy()      { *f.destroyed = true }
func (f fakeBatch) NumRows() int { return f.rows }

func TestDestroyDocVecDestroysContainedBatches(t *testing.T) {
	d1, d2 := false, false
	v := NewDocVec([]DocVecBatch{fakeBatch{destroyed: &d1, rows: 3}, fakeBatch{destroyed: &d2, rows: 2}})

	v.Destroy()

	assert.True(t, d1)
	assert.True(t, d2)
	assert.True(t, v.IsEmpty())
}

func TestEraseDoesNotDestroyDocVecBatches(t *testing.T) {
	d1 := false
	v := NewDocVec([]DocVecBatch{fakeBatch{destroyed: &d1, rows: 1}})

	v.Erase()

	assert.False(t, d1)
	assert.True(t, v.IsEmpty())
}

func TestCloneJSONIsDeep(t *testing.T) {
	orig := NewJSON(map[string]any{"nested": []any{float64(1), float64(2)}})
	clone := orig.Clone()

	require.NotEqual(t, orig.IdentityKey(), clone.IdentityKey())

	origMap := orig.JSON().(map[string]any)
	origMap["nested"].([]any)[0] = float64(99)

	cloneMap := clone.JSON().(map[string]any)
	assert.Equal(t, float64(1), cloneMap["nested"].([]any)[0], "mutating original must not affect clone")
}

func TestCloneShapedCopiesReferenceOnly(t *testing.T) {
	ref := &ShapedRef{Collection: "docs", Key: "k1", Revision: 7}
	v := NewShaped(ref)
	clone := v.Clone()

	assert.Equal(t, *ref, *clone.Shaped())
	assert.NotSame(t, ref, clone.Shaped())
}

func TestToJSONRange(t *testing.T) {
	v := NewRange(2, 4)
	assert.Equal(t, []any{float64(2), float64(3), float64(4)}, v.ToJSON())
}

func TestIntRangeLen(t *testing.T) {
	assert.Equal(t, int64(3), IntRange{Low: 2, High: 4}.Len())
	assert.Equal(t, int64(0), IntRange{Low: 5, High: 4}.Len())
}
