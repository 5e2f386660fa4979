package collection

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arangodb/aqlcore/config"
	"github.com/arangodb/aqlcore/mvcc"
)

func testConfigWithMaxWords(n int) config.Config {
	cfg := config.Default()
	cfg.FulltextMaxWords = n
	return cfg
}

// --- in-memory mvcc.Database double, good enough to exercise the query
// construction logic this package owns without a real storage layer
// (out of scope per spec §1). ---

type fakeIterator struct {
	rows []mvcc.Masterpointer
	pos  int
}

func (it *fakeIterator) Next() (mvcc.Masterpointer, bool, error) {
	if it.pos >= len(it.rows) {
		return mvcc.Masterpointer{}, false, nil
	}
	mp := it.rows[it.pos]
	it.pos++
	return mp, true, nil
}
func (it *fakeIterator) Close() error { return nil }

type fakeTx struct {
	revisions map[string][]byte
}

func (t *fakeTx) GetAsOf(domain mvcc.Domain, key []byte, _ uint64) ([]byte, bool, error) {
	if domain != mvcc.RevisionsDomain {
		return nil, false, nil
	}
	v, ok := t.revisions[string(key)]
	return v, ok, nil
}
func (t *fakeTx) Put(mvcc.Domain, []byte, []byte) error { return nil }
func (t *fakeTx) Commit() error                          { return nil }
func (t *fakeTx) Rollback() error                        { return nil }

type fakeDB struct {
	tx   *fakeTx
	rows []mvcc.Masterpointer
}

func (d *fakeDB) BeginTemporal(context.Context) (mvcc.TemporalTx, uint64, error) {
	return d.tx, 1, nil
}
func (d *fakeDB) ScanLive(ctx context.Context, collection string, txNum uint64) (mvcc.Iterator, error) {
	return &fakeIterator{rows: d.rows}, nil
}

type fakeCodec struct{}

func (fakeCodec) EncodeValue(v any) ([]byte, error) { return json.Marshal(v) }
func (fakeCodec) DecodeDocument(body []byte) (map[string]any, error) {
	var m map[string]any
	err := json.Unmarshal(body, &m)
	return m, err
}
func (fakeCodec) EncodeDocument(doc map[string]any) ([]byte, error) { return json.Marshal(doc) }

type fakeShaper struct{ known map[string]bool }

func (s fakeShaper) PathID(collection, attribute string) (int64, bool) {
	if s.known == nil {
		return 1, true
	}
	ok := s.known[attribute]
	return 1, ok
}
func (s fakeShaper) Attribute(string, int64) (string, bool) { return "", false }

func newFixture(t *testing.T, docs map[string]map[string]any) (*fakeDB, fakeCodec) {
	return newFixtureIn(t, "docs", docs)
}

func newFixtureIn(t *testing.T, collection string, docs map[string]map[string]any) (*fakeDB, fakeCodec) {
	t.Helper()
	tx := &fakeTx{revisions: map[string][]byte{}}
	rows := make([]mvcc.Masterpointer, 0, len(docs))
	// Deterministic order for test stability.
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mp := mvcc.Masterpointer{Key: k, Revision: 1}
		body, err := json.Marshal(docs[k])
		require.NoError(t, err)
		tx.revisions[string(mvcc.RevisionKey(collection, k, 1))] = body
		rows = append(rows, mp)
	}
	return &fakeDB{tx: tx, rows: rows}, fakeCodec{}
}

func TestByExampleEmptyPathRule(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{
		"a": {"k": "a"},
	})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{known: map[string]bool{"k": true}}, codec)

	res, err := col.ByExample(context.Background(), map[string]any{"unknown": "x"}, 0, -1)
	require.NoError(t, err)
	assert.Empty(t, res.Documents)
	assert.Equal(t, 0, res.Total)
}

func TestByExampleScanMatchesAllAttributes(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{
		"a": {"k": "a", "extra": float64(1)},
		"b": {"k": "a"},
	})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{known: map[string]bool{"k": true}}, codec)

	res, err := col.ByExample(context.Background(), map[string]any{"k": "a"}, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}

// fakeHashIndex grounds seed scenario 5: {k:"a"},{k:"a",extra:1},{k:"b"}
// indexed on (k, extra), example {k:"a"} must match only the document
// without `extra` because missing ≡ null (spec §8).
type fakeHashIndex struct {
	fields  []string
	entries map[string]mvcc.Masterpointer // encoded key -> masterpointer
}

func (h fakeHashIndex) Fields() []string { return h.fields }
func (h fakeHashIndex) Lookup(key []any) ([]mvcc.Masterpointer, error) {
	enc, _ := json.Marshal(key)
	if mp, ok := h.entries[string(enc)]; ok {
		return []mvcc.Masterpointer{mp}, nil
	}
	return nil, nil
}

func TestByExampleHashTreatsMissingAsNull(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{
		"a1": {"k": "a"},
		"a2": {"k": "a", "extra": float64(1)},
		"b":  {"k": "b"},
	})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec)

	keyNullExtra, _ := json.Marshal([]any{"a", nil})
	idx := fakeHashIndex{
		fields: []string{"k", "extra"},
		entries: map[string]mvcc.Masterpointer{
			string(keyNullExtra): {Key: "a1", Revision: 1},
		},
	}

	docs, err := col.ByExampleHash(context.Background(), idx, map[string]any{"k": "a"}, 0, -1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0]["k"])
	_, hasExtra := docs[0]["extra"]
	assert.False(t, hasExtra)
}

func TestFirstLastRejectsLessThanOne(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{"a": {"k": "a"}})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec)

	zero := 0
	_, err := col.First(context.Background(), &zero)
	assert.Error(t, err)
	_, err = col.Last(context.Background(), &zero)
	assert.Error(t, err)
}

func TestRandomOnEmptyCollectionReturnsNil(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec)

	doc, err := col.Random(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestChecksumFailsFastInClusterMode(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{"a": {"k": "a"}})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec).WithClusterMode(true)

	_, err := col.Checksum(context.Background(), false, false)
	assert.Error(t, err)
}

func TestResolveSkiplistConditionSingleRangeField(t *testing.T) {
	fields := []string{"a", "b", "c"}
	cond := map[string][]FieldCond{
		"a": {{Op: OpEq, Value: "x"}},
		"b": {{Op: OpGte, Value: 1}, {Op: OpLt, Value: 10}},
	}
	eq, rangeField, rangeConds, err := resolveSkiplistCondition(fields, cond)
	require.NoError(t, err)
	assert.Equal(t, []EqualityConstraint{{Field: "a", Value: "x"}}, eq)
	assert.Equal(t, "b", rangeField)
	assert.Len(t, rangeConds, 2)
}

func TestResolveSkiplistConditionRejectsTwoRangeFields(t *testing.T) {
	fields := []string{"a", "b"}
	cond := map[string][]FieldCond{
		"a": {{Op: OpGt, Value: 1}},
		"b": {{Op: OpLt, Value: 2}},
	}
	_, _, _, err := resolveSkiplistCondition(fields, cond)
	assert.Error(t, err)
}

func TestResolveSkiplistConditionRejectsUnusablePrefix(t *testing.T) {
	fields := []string{"a", "b"}
	cond := map[string][]FieldCond{
		"b": {{Op: OpEq, Value: 1}}, // "a" skipped entirely: not a usable prefix
	}
	_, _, _, err := resolveSkiplistCondition(fields, cond)
	assert.Error(t, err)
}

// fakeEdgeIndex grounds seed scenario 6: A->B, B->A, B->C.
type fakeEdgeIndex struct {
	from map[string][]mvcc.Masterpointer
	to   map[string][]mvcc.Masterpointer
}

func (e fakeEdgeIndex) LookupFrom(v string) ([]mvcc.Masterpointer, error) { return e.from[v], nil }
func (e fakeEdgeIndex) LookupTo(v string) ([]mvcc.Masterpointer, error)   { return e.to[v], nil }

func TestEdgeDirectionDuality(t *testing.T) {
	db, codec := newFixtureIn(t, "edges", map[string]map[string]any{
		"ab": {"_from": "v/A", "_to": "v/B"},
		"ba": {"_from": "v/B", "_to": "v/A"},
		"bc": {"_from": "v/B", "_to": "v/C"},
	})
	col := New("edges", mvcc.KindEdge, db, fakeShaper{}, codec)

	idx := fakeEdgeIndex{
		from: map[string][]mvcc.Masterpointer{
			"v/B": {{Key: "ba", Revision: 1}, {Key: "bc", Revision: 1}},
		},
		to: map[string][]mvcc.Masterpointer{
			"v/B": {{Key: "ab", Revision: 1}},
		},
	}

	all, err := col.Edges(context.Background(), idx, "v/B", DirAny)
	require.NoError(t, err)
	inOnly, err := col.InEdges(context.Background(), idx, "v/B")
	require.NoError(t, err)
	outOnly, err := col.OutEdges(context.Background(), idx, "v/B")
	require.NoError(t, err)

	assert.Len(t, all, 3)
	assert.Len(t, inOnly, 1)
	assert.Len(t, outOnly, 2)
}

func TestEdgesOnNonEdgeCollectionIsRejected(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec)

	_, err := col.Edges(context.Background(), fakeEdgeIndex{}, "v/A", DirAny)
	assert.Error(t, err)
}

func TestFulltextRejectsSubstringWhenUnsupported(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec)

	_, err := col.Fulltext(context.Background(), fakeFulltextIndex{}, "substring:abc")
	assert.Error(t, err)
}

func TestFulltextRejectsTooManyWords(t *testing.T) {
	db, codec := newFixture(t, map[string]map[string]any{})
	col := New("docs", mvcc.KindDocument, db, fakeShaper{}, codec).WithConfig(testConfigWithMaxWords(1))

	_, err := col.Fulltext(context.Background(), fakeFulltextIndex{substring: true}, "a,b")
	assert.Error(t, err)
}

type fakeFulltextIndex struct{ substring bool }

func (f fakeFulltextIndex) SupportsSubstring() bool { return f.substring }
func (f fakeFulltextIndex) Query(words []FulltextWord) ([]map[string]any, error) {
	return nil, nil
}
