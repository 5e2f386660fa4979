package memstore

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/btree"

	"github.com/arangodb/aqlcore/collection"
	"github.com/arangodb/aqlcore/mvcc"
)

// skiplistRow is one indexed document: its field values in the index's
// declared field order, alongside the masterpointer it resolves to.
type skiplistRow struct {
	values []any
	mp     mvcc.Masterpointer
}

// SkiplistIndex is a google/btree-backed implementation of
// collection.SkiplistIndex: a sorted index over a fixed field list,
// rebuilt once from the store's current live set at construction time
// (the real storage layer maintains this incrementally; that
// incremental maintenance is out of scope here, spec §1).
type SkiplistIndex struct {
	fields []string
	tree   *btree.BTreeG[*skiplistRow]
}

// NewSkiplistIndex builds a SkiplistIndex over collection's live
// documents, ordered by fields in the given order.
func NewSkiplistIndex(store *Store, collection string, fields []string) (*SkiplistIndex, error) {
	idx := &SkiplistIndex{fields: fields}
	idx.tree = btree.NewG(32, func(a, b *skiplistRow) bool {
		return lessRows(a, b)
	})

	store.mu.Lock()
	keys := append([]string(nil), store.keys[collection]...)
	store.mu.Unlock()

	for _, key := range keys {
		store.mu.Lock()
		enc, ok := store.docs[collection+"/"+key]
		store.mu.Unlock()
		if !ok {
			continue
		}
		mp, err := mvcc.DecodeMasterpointer(enc)
		if err != nil {
			return nil, fmt.Errorf("memstore: skiplist index %s: %w", collection, err)
		}
		store.mu.Lock()
		bodyEnc, ok := store.revs[string(mvcc.RevisionKey(collection, key, mp.Revision))]
		store.mu.Unlock()
		if !ok {
			continue
		}
		var body map[string]any
		if err := json.Unmarshal(bodyEnc, &body); err != nil {
			return nil, fmt.Errorf("memstore: skiplist index %s: %w", collection, err)
		}
		values := make([]any, len(fields))
		for i, f := range fields {
			values[i] = body[f] // missing ≡ nil
		}
		idx.tree.ReplaceOrInsert(&skiplistRow{values: values, mp: mp})
	}
	return idx, nil
}

func lessRows(a, b *skiplistRow) bool {
	for i := range a.values {
		c := compareOrdered(a.values[i], b.values[i])
		if c != 0 {
			return c < 0
		}
	}
	if a.mp.Key != b.mp.Key {
		return a.mp.Key < b.mp.Key
	}
	return false
}

// compareOrdered imposes a total order over the JSON scalar types an
// indexed field may hold: nil < bool < number < string, each compared
// within its own kind.
func compareOrdered(a, b any) int {
	ra, rb := orderRank(a), orderRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func orderRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

// Fields satisfies collection.SkiplistIndex.
func (idx *SkiplistIndex) Fields() []string { return idx.fields }

// QueryEquality satisfies collection.SkiplistIndex.
func (idx *SkiplistIndex) QueryEquality(equalities []collection.EqualityConstraint, skip, limit int, reverse bool) ([]mvcc.Masterpointer, int, error) {
	var matched []mvcc.Masterpointer
	visit := func(r *skiplistRow) bool {
		if idx.matchesEqualities(r, equalities) {
			matched = append(matched, r.mp)
		}
		return true
	}
	if reverse {
		idx.tree.Descend(visit)
	} else {
		idx.tree.Ascend(visit)
	}
	return clampRows(matched, skip, limit), len(matched), nil
}

// QueryRange satisfies collection.SkiplistIndex.
func (idx *SkiplistIndex) QueryRange(equalities []collection.EqualityConstraint, rangeField string, rangeConds []collection.FieldCond, skip, limit int, reverse bool) ([]mvcc.Masterpointer, int, error) {
	fieldPos := -1
	for i, f := range idx.fields {
		if f == rangeField {
			fieldPos = i
			break
		}
	}
	if fieldPos < 0 {
		return nil, 0, fmt.Errorf("memstore: range field %q not in index", rangeField)
	}

	var matched []mvcc.Masterpointer
	visit := func(r *skiplistRow) bool {
		if !idx.matchesEqualities(r, equalities) {
			return true
		}
		if matchesRangeConds(r.values[fieldPos], rangeConds) {
			matched = append(matched, r.mp)
		}
		return true
	}
	if reverse {
		idx.tree.Descend(visit)
	} else {
		idx.tree.Ascend(visit)
	}
	return clampRows(matched, skip, limit), len(matched), nil
}

func (idx *SkiplistIndex) matchesEqualities(r *skiplistRow, equalities []collection.EqualityConstraint) bool {
	for _, eq := range equalities {
		pos := -1
		for i, f := range idx.fields {
			if f == eq.Field {
				pos = i
				break
			}
		}
		if pos < 0 || !reflect.DeepEqual(r.values[pos], eq.Value) {
			return false
		}
	}
	return true
}

func matchesRangeConds(v any, conds []collection.FieldCond) bool {
	for _, c := range conds {
		cmp := compareOrdered(v, c.Value)
		var ok bool
		switch c.Op {
		case collection.OpEq:
			ok = cmp == 0
		case collection.OpLt:
			ok = cmp < 0
		case collection.OpLte:
			ok = cmp <= 0
		case collection.OpGt:
			ok = cmp > 0
		case collection.OpGte:
			ok = cmp >= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

func clampRows(rows []mvcc.Masterpointer, skip, limit int) []mvcc.Masterpointer {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(rows) {
		return nil
	}
	rows = rows[skip:]
	if limit < 0 {
		return rows
	}
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// HashIndex is an implementation of collection.HashIndex that keeps the
// indexed rows in a slice, rebuilt once from the store's live set at
// construction time; Lookup compares the key against every row.
type HashIndex struct {
	fields []string
	rows   []*skiplistRow
}

// NewHashIndex builds a HashIndex over collection's live documents for
// the given field list.
func NewHashIndex(store *Store, collectionName string, fields []string) (*HashIndex, error) {
	skip, err := NewSkiplistIndex(store, collectionName, fields)
	if err != nil {
		return nil, err
	}
	var rows []*skiplistRow
	skip.tree.Ascend(func(r *skiplistRow) bool {
		rows = append(rows, r)
		return true
	})
	return &HashIndex{fields: fields, rows: rows}, nil
}

// Fields satisfies collection.HashIndex.
func (h *HashIndex) Fields() []string { return h.fields }

// Lookup satisfies collection.HashIndex.
func (h *HashIndex) Lookup(key []any) ([]mvcc.Masterpointer, error) {
	var out []mvcc.Masterpointer
	for _, r := range h.rows {
		match := true
		for i := range h.fields {
			var want any
			if i < len(key) {
				want = key[i]
			}
			if !reflect.DeepEqual(r.values[i], want) {
				match = false
				break
			}
		}
		if match {
			out = append(out, r.mp)
		}
	}
	return out, nil
}

// EdgeIndex is a plain-map implementation of collection.EdgeIndex over
// an edge collection's live masterpointers.
type EdgeIndex struct {
	from map[string][]mvcc.Masterpointer
	to   map[string][]mvcc.Masterpointer
}

// NewEdgeIndex builds an EdgeIndex over collectionName's live edges.
func NewEdgeIndex(store *Store, collectionName string) *EdgeIndex {
	idx := &EdgeIndex{from: make(map[string][]mvcc.Masterpointer), to: make(map[string][]mvcc.Masterpointer)}
	store.mu.Lock()
	keys := append([]string(nil), store.keys[collectionName]...)
	store.mu.Unlock()
	for _, key := range keys {
		store.mu.Lock()
		enc, ok := store.docs[collectionName+"/"+key]
		store.mu.Unlock()
		if !ok {
			continue
		}
		mp, err := mvcc.DecodeMasterpointer(enc)
		if err != nil {
			continue
		}
		if mp.FromCollection != "" {
			handle := mp.FromCollection + "/" + mp.FromKey
			idx.from[handle] = append(idx.from[handle], mp)
		}
		if mp.ToCollection != "" {
			handle := mp.ToCollection + "/" + mp.ToKey
			idx.to[handle] = append(idx.to[handle], mp)
		}
	}
	return idx
}

// LookupFrom satisfies collection.EdgeIndex.
func (idx *EdgeIndex) LookupFrom(vertexHandle string) ([]mvcc.Masterpointer, error) {
	return idx.from[vertexHandle], nil
}

// LookupTo satisfies collection.EdgeIndex.
func (idx *EdgeIndex) LookupTo(vertexHandle string) ([]mvcc.Masterpointer, error) {
	return idx.to[vertexHandle], nil
}
