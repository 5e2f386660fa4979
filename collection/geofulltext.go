package collection

import (
	"context"
	"strings"

	"github.com/arangodb/aqlcore/aqlerrors"
)

// GeoIndex is the storage-layer collaborator for NEAR/WITHIN: a geo
// index returning resolved documents paired with ascending distances
// (spec §4.4 bullet 7). Out of scope per spec §1.
type GeoIndex interface {
	Near(lat, lng float64, limit int) (docs []any, distances []float64, err error)
	Within(lat, lng, radius float64) (docs []any, distances []float64, err error)
}

// Near returns the limit nearest documents to (lat, lng), ordered by
// ascending distance. A non-positive limit defaults to the configured
// GeoNearDefaultLimit (spec §4.4 bullet 7).
func (c *Collection) Near(ctx context.Context, idx GeoIndex, lat, lng float64, limit int) (GeoResult, error) {
	if limit <= 0 {
		limit = c.cfg.GeoNearDefaultLimit
	}
	scope, _, err := c.open(ctx)
	if err != nil {
		return GeoResult{}, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	docsAny, distances, err := idx.Near(lat, lng, limit)
	if err != nil {
		finishErr = err
		return GeoResult{}, err
	}
	return GeoResult{Documents: toDocuments(docsAny), Distances: distances}, nil
}

// Within returns every document within radius of (lat, lng), ordered by
// ascending distance (spec §4.4 bullet 7, spec §8 "Near ordering").
func (c *Collection) Within(ctx context.Context, idx GeoIndex, lat, lng, radius float64) (GeoResult, error) {
	scope, _, err := c.open(ctx)
	if err != nil {
		return GeoResult{}, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	docsAny, distances, err := idx.Within(lat, lng, radius)
	if err != nil {
		finishErr = err
		return GeoResult{}, err
	}
	return GeoResult{Documents: toDocuments(docsAny), Distances: distances}, nil
}

func toDocuments(docsAny []any) []map[string]any {
	docs := make([]map[string]any, 0, len(docsAny))
	for _, d := range docsAny {
		if m, ok := d.(map[string]any); ok {
			docs = append(docs, m)
		}
	}
	return docs
}

// FulltextIndex is the storage-layer collaborator for FULLTEXT (spec
// §4.4 bullet 8). Out of scope per spec §1.
type FulltextIndex interface {
	SupportsSubstring() bool
	Query(words []FulltextWord) ([]map[string]any, error)
}

// FulltextWord is one parsed query token.
type FulltextWord struct {
	Text      string
	Substring bool
}

// Fulltext parses query (bounded by the configured FulltextMaxWords),
// rejects substring terms when idx was not built to support them, and
// executes against idx (spec §4.4 bullet 8). Result order is whatever
// idx.Query returns — implementation-defined per spec.
func (c *Collection) Fulltext(ctx context.Context, idx FulltextIndex, query string) ([]map[string]any, error) {
	words, err := parseFulltextQuery(query, c.cfg.FulltextMaxWords)
	if err != nil {
		return nil, err
	}
	if !idx.SupportsSubstring() {
		for _, w := range words {
			if w.Substring {
				return nil, aqlerrors.New(aqlerrors.BadParameter, "fulltext index does not support substring queries")
			}
		}
	}

	scope, _, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	docs, err := idx.Query(words)
	if err != nil {
		finishErr = err
		return nil, err
	}
	return docs, nil
}

// parseFulltextQuery splits query on commas, trimming a "substring:"
// prefix per term to mark substring matches, and bounds the result to
// maxWords terms.
func parseFulltextQuery(query string, maxWords int) ([]FulltextWord, error) {
	parts := strings.Split(query, ",")
	if len(parts) > maxWords {
		return nil, aqlerrors.New(aqlerrors.BadParameter, "fulltext query exceeds maximum of %d words", maxWords)
	}
	words := make([]FulltextWord, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(p, "substring:"); ok {
			words = append(words, FulltextWord{Text: rest, Substring: true})
			continue
		}
		words = append(words, FulltextWord{Text: p})
	}
	return words, nil
}
