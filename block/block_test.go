package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arangodb/aqlcore/aqlbatch"
	"github.com/arangodb/aqlcore/aqlvalue"
)

// source is a minimal fixed-batch Block double standing in for a scan
// or another block, used to drive the blocks under test without needing
// a full pipeline.
type source struct {
	rows   [][]aqlvalue.Value
	nRegs  int
	pos    int
}

func newSource(nRegs int, values ...float64) *source {
	s := &source{nRegs: nRegs}
	for _, v := range values {
		s.rows = append(s.rows, []aqlvalue.Value{aqlvalue.NewJSON(v)})
	}
	return s
}

func (s *source) Initialize(context.Context) error { return nil }
func (s *source) InitializeCursor(context.Context, *aqlbatch.Batch, int) error {
	s.pos = 0
	return nil
}

func (s *source) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	if s.pos >= len(s.rows) {
		return nil, 0, nil
	}
	take := atMost
	if take < 0 || s.pos+take > len(s.rows) {
		take = len(s.rows) - s.pos
	}
	if take == 0 {
		take = 1
	}
	if skipping {
		s.pos += take
		return nil, take, nil
	}
	out := aqlbatch.New(take, s.nRegs)
	for i := 0; i < take; i++ {
		for reg := 0; reg < s.nRegs; reg++ {
			require2(out.SetValue(i, reg, s.rows[s.pos+i][reg].Clone()))
		}
	}
	s.pos += take
	return out, 0, nil
}

func require2(err error) {
	if err != nil {
		panic(err)
	}
}

func (s *source) HasMore() bool              { return s.pos < len(s.rows) }
func (s *source) Count() int                 { return len(s.rows) }
func (s *source) Remaining() int             { return len(s.rows) - s.pos }
func (s *source) Shutdown(context.Context, ShutdownCode) error { return nil }

func TestSingletonToReturn(t *testing.T) {
	singleton := NewSingleton(1)
	singleton.SetRow([]aqlvalue.Value{aqlvalue.NewJSON(float64(7))})
	ret := NewReturn(singleton, 0)

	require.NoError(t, ret.Initialize(context.Background()))
	out, err := GetSome(context.Background(), ret, 0, 10)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, 1, out.NumRows())
	assert.Equal(t, float64(7), out.GetValue(0, 0).JSON())

	out2, err := GetSome(context.Background(), ret, 0, 10)
	require.NoError(t, err)
	assert.Nil(t, out2)
}

func TestLimitOffsetAndLimit(t *testing.T) {
	src := newSource(1, 1, 2, 3, 4, 5)
	limit := NewLimit(src, 2, 2, true)

	require.NoError(t, limit.Initialize(context.Background()))
	out, err := GetSome(context.Background(), limit, 0, 10)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, float64(3), out.GetValue(0, 0).JSON())
	assert.Equal(t, float64(4), out.GetValue(1, 0).JSON())

	// Drain the fullCount tail.
	for limit.HasMore() {
		_, err := GetSome(context.Background(), limit, 0, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, limit.FullCount())
}

func TestFilterOverBooleanRegister(t *testing.T) {
	src := &source{nRegs: 1}
	src.rows = [][]aqlvalue.Value{
		{aqlvalue.NewJSON(true)},
		{aqlvalue.NewJSON(false)},
		{aqlvalue.NewJSON(true)},
	}
	f := NewFilter(src, 0, 1)

	require.NoError(t, f.Initialize(context.Background()))
	out, err := GetSome(context.Background(), f, 0, 10)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 2, out.NumRows())
}

func TestSubqueryProducesDocVecPerRow(t *testing.T) {
	// Register 0 carries the outer value; register 1 starts EMPTY and
	// receives the subquery's DOCVEC.
	outer := &source{nRegs: 2}
	for _, v := range []float64{1, 2, 3} {
		outer.rows = append(outer.rows, []aqlvalue.Value{aqlvalue.NewJSON(v), aqlvalue.NewEmpty()})
	}

	makeRoot := func() Block {
		return newSource(1, 10, 20)
	}
	// Subquery root is re-created per row via InitializeCursor in a real
	// plan; here a single root suffices since GetOrSkipSome resets pos via
	// InitializeCursor before each drain.
	root := makeRoot()
	sq := NewSubquery(outer, root, 1, 2, 1000)

	require.NoError(t, sq.Initialize(context.Background()))
	out, err := GetSome(context.Background(), sq, 0, 10)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, 3, out.NumRows())

	v := out.GetValue(0, 1)
	require.Equal(t, aqlvalue.DocVec, v.Tag())
}

func TestNoResultsAlwaysExhausted(t *testing.T) {
	nr := NewNoResults()
	assert.False(t, nr.HasMore())
	assert.Equal(t, 0, nr.Count())
	out, err := GetSome(context.Background(), nr, 0, 10)
	require.NoError(t, err)
	assert.Nil(t, out)
}
