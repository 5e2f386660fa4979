package collection

import (
	"context"
	"reflect"

	"github.com/arangodb/aqlcore/mvcc"
)

// HashIndex is the storage-layer collaborator for BY_EXAMPLE_HASH: a
// hash lookup over a fixed, ordered list of attribute paths (spec §4.4
// bullet 3). Out of scope per spec §1; the core only consumes this
// contract.
type HashIndex interface {
	// Fields returns the index's path list in declaration order.
	Fields() []string
	// Lookup returns every masterpointer whose shaped key equals key,
	// where key[i] corresponds to Fields()[i] and a nil entry means the
	// attribute was absent from the example or given as null; it matches
	// documents whose attribute is null (missing ≡ null, spec §4.4
	// bullet 3 / §8 "Hash/skiplist missing ≡ null").
	Lookup(key []any) ([]mvcc.Masterpointer, error)
}

// ByExample performs a full scan, returning rows whose stored value at
// every named attribute structurally equals the example's value (spec
// §4.4 bullet 2). An attribute name unknown to the collection's shaper
// yields the empty-result sentinel, not an error (spec §8 "By-example
// empty-path rule").
func (c *Collection) ByExample(ctx context.Context, example map[string]any, skip, limit int) (Result, error) {
	for attr := range example {
		if _, ok := c.shaper.PathID(c.name, attr); !ok {
			return Result{}, nil
		}
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return Result{}, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	it, err := tc.Scan(ctx)
	if err != nil {
		finishErr = err
		return Result{}, err
	}
	defer it.Close()

	var matches []mvcc.Masterpointer
	reader := tc.Reader()
	for {
		mp, ok, err := it.Next()
		if err != nil {
			finishErr = err
			return Result{}, err
		}
		if !ok {
			break
		}
		doc, err := reader.ReadDocument(mp)
		if err != nil {
			finishErr = err
			return Result{}, err
		}
		if matchesExample(doc, example) {
			matches = append(matches, mp)
		}
	}

	total := len(matches)
	page := clampSkipLimit(matches, skip, limit)
	docs, err := c.materialize(tc, page)
	if err != nil {
		finishErr = err
		return Result{}, err
	}
	return Result{Documents: docs, Total: total, Count: len(docs)}, nil
}

func matchesExample(doc map[string]any, example map[string]any) bool {
	for attr, want := range example {
		got, present := doc[attr]
		if !present {
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// ByExampleHash looks up example rows via idx, an index over a known set
// of paths. Attributes absent from example are encoded as JSON null,
// which is semantically different from "attribute absent" (spec §4.4
// bullet 3); skip/limit are applied in memory after the lookup.
func (c *Collection) ByExampleHash(ctx context.Context, idx HashIndex, example map[string]any, skip, limit int) ([]map[string]any, error) {
	key := make([]any, len(idx.Fields()))
	for i, field := range idx.Fields() {
		if v, ok := example[field]; ok {
			key[i] = v
		} else {
			key[i] = nil // missing ≡ null, spec §8
		}
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	rows, err := idx.Lookup(key)
	if err != nil {
		finishErr = err
		return nil, err
	}
	page := clampSkipLimit(rows, skip, limit)
	docs, err := c.materialize(tc, page)
	if err != nil {
		finishErr = err
		return nil, err
	}
	return docs, nil
}
