// Package collection implements the MVCC collection read primitives
// (I): full scan, by-example, hash/skiplist lookup, edge lookup, geo
// near/within, fulltext, first/last, and checksum — each opening its own
// mvcc.Scope (spec §4.4). Results are decoded documents
// (map[string]any), read while the scope is open; no primitive returns
// item batches or shaped-document references.
package collection

import (
	"context"
	"fmt"

	"github.com/arangodb/aqlcore/aqlerrors"
	"github.com/arangodb/aqlcore/config"
	"github.com/arangodb/aqlcore/mathutil"
	"github.com/arangodb/aqlcore/mvcc"
)

// Result is the shape returned by skip/limit-capable operations: ALL,
// BY_EXAMPLE, BY_EXAMPLE_SKIPLIST, BY_CONDITION_SKIPLIST (spec §6).
type Result struct {
	Documents []map[string]any
	Total     int
	Count     int
}

// GeoResult is the shape returned by NEAR/WITHIN: parallel arrays
// ordered by ascending distance (spec §4.4 bullet 7).
type GeoResult struct {
	Documents []map[string]any
	Distances []float64
}

// ChecksumResult is the shape returned by checksum (spec §4.4 bullet 9).
type ChecksumResult struct {
	Checksum uint32
	Revision uint64
}

// Collection is a handle for running read primitives against one
// collection. It does not itself hold a transaction: every method opens
// its own mvcc.Scope and closes it before returning (spec §4.4 "All
// operations open a TransactionScope first").
type Collection struct {
	name   string
	kind   mvcc.CollectionKind
	db     mvcc.Database
	shaper mvcc.Shaper
	codec  mvcc.ShapedCodec
	cfg    config.Config

	clusterMode bool
}

// WithClusterMode marks the collection as running under cluster
// coordination, which makes Checksum fail fast (spec §4.4 bullet 9 /
// §5 "incompatible with cluster mode").
func (c *Collection) WithClusterMode(cluster bool) *Collection {
	c.clusterMode = cluster
	return c
}

// New returns a handle for the named collection, using config.Default()
// for the engine-wide tunables.
func New(name string, kind mvcc.CollectionKind, db mvcc.Database, shaper mvcc.Shaper, codec mvcc.ShapedCodec) *Collection {
	return &Collection{name: name, kind: kind, db: db, shaper: shaper, codec: codec, cfg: config.Default()}
}

// WithConfig overrides the engine-wide tunables this collection's
// operations consult: the fulltext word bound and the geo default limit.
func (c *Collection) WithConfig(cfg config.Config) *Collection {
	c.cfg = cfg
	return c
}

func (c *Collection) open(ctx context.Context) (*mvcc.Scope, *mvcc.TC, error) {
	scope, err := mvcc.Open(ctx, c.db, c.shaper, c.codec, map[string]mvcc.CollectionKind{c.name: c.kind})
	if err != nil {
		return nil, nil, err
	}
	return scope, scope.Collection(c.name, c.kind), nil
}

func clampSkipLimit(rows []mvcc.Masterpointer, skip, limit int) []mvcc.Masterpointer {
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

func (c *Collection) materialize(tc *mvcc.TC, rows []mvcc.Masterpointer) ([]map[string]any, error) {
	reader := tc.Reader()
	docs := make([]map[string]any, 0, len(rows))
	for _, mp := range rows {
		doc, err := reader.ReadDocument(mp)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Random returns a single document sampled uniformly enough to be a
// useful sampler, or nil if the collection is empty (spec §4.4 bullet
// 1). Exact distribution is unspecified; this walks the live-key scan
// to a random offset rather than materializing the whole key set.
func (c *Collection) Random(ctx context.Context) (map[string]any, error) {
	scope, tc, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	seq, err := tc.Reader().SequenceValue()
	if err != nil {
		finishErr = err
		return nil, err
	}
	if seq == 0 {
		return nil, nil
	}
	offset, err := mathutil.RandInt64InRange(int64(seq))
	if err != nil {
		finishErr = err
		return nil, fmt.Errorf("collection: random sample: %w", err)
	}

	it, err := tc.Scan(ctx)
	if err != nil {
		finishErr = err
		return nil, err
	}
	defer it.Close()

	var picked *mvcc.Masterpointer
	for i := int64(0); ; i++ {
		mp, ok, err := it.Next()
		if err != nil {
			finishErr = err
			return nil, err
		}
		if !ok {
			break
		}
		if i == offset {
			picked = &mp
			break
		}
	}
	if picked == nil {
		return nil, nil
	}
	doc, err := tc.Reader().ReadDocument(*picked)
	if err != nil {
		finishErr = err
		return nil, err
	}
	return doc, nil
}

// errAttributeUnknown is the empty-path sentinel (spec §4.4 bullet 2 /
// §7 kind 1): unknown attribute paths translate into an empty result at
// the operation boundary, never an error to the caller.
var errAttributeUnknown = aqlerrors.New(aqlerrors.ElementNotFound, "attribute path unknown")
