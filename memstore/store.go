// Package memstore is a minimal in-process stand-in for the MVCC storage
// layer spec.md places out of scope (§1): it implements mvcc.Database,
// mvcc.Scanner and mvcc.ShapedCodec directly over Go maps, encoding
// masterpointers and document bodies exactly the way Reader expects to
// decode them. It exists so cmd/aqlrun has something concrete to run the
// collection read primitives and the block pipeline against.
package memstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/arangodb/aqlcore/mvcc"
)

// Store holds every collection's live masterpointers and document
// bodies behind a single mutex. There is no real MVCC history here: the
// storage layer's temporal versioning is out of scope, so GetAsOf always
// resolves against the current live state regardless of txNum.
type Store struct {
	mu sync.Mutex

	kinds map[string]mvcc.CollectionKind
	keys  map[string][]string // collection -> insertion order of live keys
	docs  map[string][]byte   // "collection/key" -> encoded masterpointer
	revs  map[string][]byte   // revisionKey -> encoded body
	seq   map[string]uint64   // collection -> sequence counter

	paths     map[string]map[string]int64
	pathNames map[string]map[int64]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		kinds:     make(map[string]mvcc.CollectionKind),
		keys:      make(map[string][]string),
		docs:      make(map[string][]byte),
		revs:      make(map[string][]byte),
		seq:       make(map[string]uint64),
		paths:     make(map[string]map[string]int64),
		pathNames: make(map[string]map[int64]string),
	}
}

// Insert adds or overwrites a document under collection/key, assigning
// it the next revision. from/to, when non-empty document handles
// ("collection/key"), mark this as an edge masterpointer.
func (s *Store) Insert(collection string, kind mvcc.CollectionKind, key string, body map[string]any, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.kinds[collection] = kind
	docKey := collection + "/" + key
	if _, exists := s.docs[docKey]; !exists {
		s.keys[collection] = append(s.keys[collection], key)
	}

	s.seq[collection]++
	rev := s.seq[collection]

	mp := mvcc.Masterpointer{Key: key, Revision: rev}
	if from != "" {
		mp.FromCollection, mp.FromKey = splitHandle(from)
	}
	if to != "" {
		mp.ToCollection, mp.ToKey = splitHandle(to)
	}
	s.docs[docKey] = mvcc.EncodeMasterpointer(mp)

	enc, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("memstore: encode %s: %w", docKey, err)
	}
	s.revs[string(mvcc.RevisionKey(collection, key, rev))] = enc

	s.indexPaths(collection, body)
	return nil
}

func splitHandle(handle string) (string, string) {
	if i := strings.IndexByte(handle, '/'); i >= 0 {
		return handle[:i], handle[i+1:]
	}
	return "", handle
}

func (s *Store) indexPaths(collection string, body map[string]any) {
	if s.paths[collection] == nil {
		s.paths[collection] = make(map[string]int64)
		s.pathNames[collection] = make(map[int64]string)
	}
	for attr := range body {
		if _, ok := s.paths[collection][attr]; ok {
			continue
		}
		id := int64(len(s.paths[collection]) + 1)
		s.paths[collection][attr] = id
		s.pathNames[collection][id] = attr
	}
}

// BeginTemporal satisfies mvcc.Database. txNum is always 0: this backend
// has no historical versions to distinguish.
func (s *Store) BeginTemporal(ctx context.Context) (mvcc.TemporalTx, uint64, error) {
	return &tx{store: s}, 0, nil
}

type tx struct {
	store *Store
}

// GetAsOf satisfies mvcc.TemporalTx, ignoring txNum (see Store doc).
func (t *tx) GetAsOf(domain mvcc.Domain, key []byte, txNum uint64) ([]byte, bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	switch domain {
	case mvcc.DocumentsDomain:
		enc, ok := t.store.docs[string(key)]
		return enc, ok, nil
	case mvcc.RevisionsDomain:
		enc, ok := t.store.revs[string(key)]
		return enc, ok, nil
	case mvcc.SequenceDomain:
		seq, ok := t.store.seq[string(key)]
		if !ok {
			return nil, false, nil
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, seq)
		return buf, true, nil
	default:
		return nil, false, fmt.Errorf("memstore: domain %s not backed by this store", domain)
	}
}

// Put satisfies mvcc.TemporalTx for callers that write through the
// transaction contract directly rather than via Store.Insert.
func (t *tx) Put(domain mvcc.Domain, key, value []byte) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	switch domain {
	case mvcc.DocumentsDomain:
		t.store.docs[string(key)] = value
	case mvcc.RevisionsDomain:
		t.store.revs[string(key)] = value
	default:
		return fmt.Errorf("memstore: domain %s not backed by this store", domain)
	}
	return nil
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

// ScanLive satisfies mvcc.Scanner, walking a collection's keys in
// insertion order.
func (s *Store) ScanLive(ctx context.Context, collection string, txNum uint64) (mvcc.Iterator, error) {
	s.mu.Lock()
	keys := append([]string(nil), s.keys[collection]...)
	s.mu.Unlock()
	return &scanIterator{store: s, collection: collection, keys: keys}, nil
}

type scanIterator struct {
	store      *Store
	collection string
	keys       []string
	pos        int
}

func (it *scanIterator) Next() (mvcc.Masterpointer, bool, error) {
	it.store.mu.Lock()
	defer it.store.mu.Unlock()
	for it.pos < len(it.keys) {
		key := it.keys[it.pos]
		it.pos++
		enc, ok := it.store.docs[it.collection+"/"+key]
		if !ok {
			continue
		}
		mp, err := mvcc.DecodeMasterpointer(enc)
		if err != nil {
			return mvcc.Masterpointer{}, false, fmt.Errorf("memstore: decode %s/%s: %w", it.collection, key, err)
		}
		mp.Key = key
		return mp, true, nil
	}
	return mvcc.Masterpointer{}, false, nil
}

func (it *scanIterator) Close() error { return nil }

// EncodeValue satisfies mvcc.ShapedCodec.
func (s *Store) EncodeValue(v any) ([]byte, error) { return json.Marshal(v) }

// DecodeDocument satisfies mvcc.ShapedCodec.
func (s *Store) DecodeDocument(body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("memstore: decode document: %w", err)
	}
	return m, nil
}

// EncodeDocument satisfies mvcc.ShapedCodec.
func (s *Store) EncodeDocument(doc map[string]any) ([]byte, error) { return json.Marshal(doc) }
