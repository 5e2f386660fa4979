package main

import (
	"context"
	"fmt"

	"github.com/arangodb/aqlcore/aqlbatch"
	"github.com/arangodb/aqlcore/aqlvalue"
	"github.com/arangodb/aqlcore/block"
	"github.com/arangodb/aqlcore/config"
)

// docSource is a leaf Block emitting one row per document: register 0
// holds the document as a JSON value, register 1 holds the boolean
// Filter predicate (age >= minAge). Real plans source rows from
// collection reads via mvcc.TC.Scan; this is the fixed in-memory stand-in
// cmd/aqlrun drives the block pipeline with.
type docSource struct {
	docs   []map[string]any
	minAge float64
	pos    int
}

func (s *docSource) Initialize(context.Context) error { return nil }

func (s *docSource) InitializeCursor(context.Context, *aqlbatch.Batch, int) error {
	s.pos = 0
	return nil
}

func (s *docSource) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	if s.pos >= len(s.docs) {
		return nil, 0, nil
	}
	take := len(s.docs) - s.pos
	if atMost >= 0 && atMost < take {
		take = atMost
	}
	if skipping {
		s.pos += take
		return nil, take, nil
	}

	out := aqlbatch.New(take, 2)
	for i := 0; i < take; i++ {
		doc := s.docs[s.pos+i]
		if err := out.SetValue(i, 0, aqlvalue.NewJSON(doc)); err != nil {
			return nil, 0, err
		}
		age, _ := doc["age"].(float64)
		if err := out.SetValue(i, 1, aqlvalue.NewJSON(age >= s.minAge)); err != nil {
			return nil, 0, err
		}
	}
	s.pos += take
	return out, 0, nil
}

func (s *docSource) HasMore() bool  { return s.pos < len(s.docs) }
func (s *docSource) Count() int     { return len(s.docs) }
func (s *docSource) Remaining() int { return len(s.docs) - s.pos }

func (s *docSource) Shutdown(context.Context, block.ShutdownCode) error { return nil }

// runPipeline drives docs through Filter(age >= minAge) -> Limit ->
// Return(reg 0), demonstrating the block pipeline (P) over the MVCC
// collection read (I) results.
func runPipeline(ctx context.Context, docs []map[string]any, minAge float64, cfg config.Config) ([]map[string]any, error) {
	src := &docSource{docs: docs, minAge: minAge}
	filtered := block.NewFilter(src, 1, 2)
	limited := block.NewLimit(filtered, 0, len(docs), false)
	ret := block.NewReturn(limited, 0)

	if err := ret.Initialize(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = ret.Shutdown(ctx, 0) }()

	var out []map[string]any
	for {
		batch, err := block.GetSome(ctx, ret, 0, cfg.DefaultBatchSize)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		for row := 0; row < batch.NumRows(); row++ {
			v := batch.GetValue(row, 0)
			doc, ok := v.JSON().(map[string]any)
			if !ok {
				batch.Destroy()
				return nil, fmt.Errorf("pipeline: expected JSON document, got tag %v", v.Tag())
			}
			out = append(out, doc)
		}
		batch.Destroy()
	}
	return out, nil
}
