package mvcc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTx is a minimal in-memory TemporalTx double for testing Scope/Reader
// wiring without a real storage layer (out of scope per spec §1).
type memTx struct {
	data      map[Domain]map[string][]byte
	committed bool
	rolledBack bool
}

func newMemTx() *memTx {
	return &memTx{data: make(map[Domain]map[string][]byte)}
}

func (t *memTx) put(domain Domain, key string, value []byte) {
	if t.data[domain] == nil {
		t.data[domain] = make(map[string][]byte)
	}
	t.data[domain][key] = value
}

func (t *memTx) GetAsOf(domain Domain, key []byte, _ uint64) ([]byte, bool, error) {
	v, ok := t.data[domain][string(key)]
	return v, ok, nil
}

func (t *memTx) Put(domain Domain, key, value []byte) error {
	t.put(domain, string(key), value)
	return nil
}

func (t *memTx) Commit() error   { t.committed = true; return nil }
func (t *memTx) Rollback() error { t.rolledBack = true; return nil }

type memDB struct{ tx *memTx }

func (d *memDB) BeginTemporal(context.Context) (TemporalTx, uint64, error) {
	return d.tx, 1, nil
}

type memCodec struct{}

func (memCodec) EncodeValue(v any) ([]byte, error) { return json.Marshal(v) }
func (memCodec) DecodeDocument(body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return m, nil
}
func (memCodec) EncodeDocument(doc map[string]any) ([]byte, error) { return json.Marshal(doc) }

type memShaper struct{}

func (memShaper) PathID(collection, attribute string) (int64, bool) { return 0, false }
func (memShaper) Attribute(collection string, pathID int64) (string, bool) { return "", false }

func TestFinishCommitsOnNilCause(t *testing.T) {
	tx := newMemTx()
	s, err := Open(context.Background(), &memDB{tx: tx}, memShaper{}, memCodec{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Finish(nil))
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestFinishRollsBackOnCause(t *testing.T) {
	tx := newMemTx()
	s, err := Open(context.Background(), &memDB{tx: tx}, memShaper{}, memCodec{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Finish(assertErr))
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestFinishIsIdempotent(t *testing.T) {
	tx := newMemTx()
	s, err := Open(context.Background(), &memDB{tx: tx}, memShaper{}, memCodec{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Finish(nil))
	require.NoError(t, s.Finish(assertErr)) // second call must be a no-op
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestReaderRoundTripsMasterpointerAndDocument(t *testing.T) {
	tx := newMemTx()
	mp := Masterpointer{Key: "k1", Revision: 42}
	tx.put(DocumentsDomain, "docs/k1", EncodeMasterpointer(mp))
	body, err := json.Marshal(map[string]any{"k": "a"})
	require.NoError(t, err)
	tx.put(RevisionsDomain, string(revisionKey("docs", "k1", 42)), body)

	s, err := Open(context.Background(), &memDB{tx: tx}, memShaper{}, memCodec{}, map[string]CollectionKind{"docs": KindDocument})
	require.NoError(t, err)
	defer func() { _ = s.Finish(nil) }()

	tc := s.Collection("docs", KindDocument)
	got, ok, err := tc.Reader().ReadMasterpointer("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), got.Revision)

	doc, err := tc.Reader().ReadDocument(got)
	require.NoError(t, err)
	assert.Equal(t, "a", doc["k"])
}

func TestReaderTreatsDeletedAsNotFound(t *testing.T) {
	tx := newMemTx()
	tx.put(DocumentsDomain, "docs/k1", EncodeMasterpointer(Masterpointer{Key: "k1", Deleted: true}))

	s, err := Open(context.Background(), &memDB{tx: tx}, memShaper{}, memCodec{}, nil)
	require.NoError(t, err)
	defer func() { _ = s.Finish(nil) }()

	_, ok, err := s.Collection("docs", KindDocument).Reader().ReadMasterpointer("k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequireEdgeCollectionRejectsDocumentCollection(t *testing.T) {
	tx := newMemTx()
	s, err := Open(context.Background(), &memDB{tx: tx}, memShaper{}, memCodec{}, nil)
	require.NoError(t, err)
	defer func() { _ = s.Finish(nil) }()

	err = s.Collection("docs", KindDocument).RequireEdgeCollection()
	assert.Error(t, err)
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
