package collection

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arangodb/aqlcore/aqlerrors"
	"github.com/arangodb/aqlcore/mvcc"
)

// Direction selects which terminus of an edge must match the query
// vertex (spec §4.4 bullet 5).
type Direction int

const (
	DirAny Direction = iota
	DirIn
	DirOut
)

// EdgeIndex is the storage-layer collaborator backing EDGES/INEDGES/
// OUTEDGES: per-vertex indexes over an edge collection's _from/_to
// terminus (spec §4.4 bullet 5). Out of scope per spec §1.
type EdgeIndex interface {
	LookupFrom(vertexHandle string) ([]mvcc.Masterpointer, error)
	LookupTo(vertexHandle string) ([]mvcc.Masterpointer, error)
}

// VertexHandle extracts a document handle string from v, which may be a
// handle string itself or a document map carrying "_id".
func VertexHandle(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any:
		id, ok := t["_id"].(string)
		if !ok {
			return "", aqlerrors.New(aqlerrors.BadParameter, "document is missing _id")
		}
		return id, nil
	default:
		return "", aqlerrors.New(aqlerrors.BadParameter, "vertex must be a handle string or a document")
	}
}

// normalizeVertices accepts a handle string, a document, or an array of
// either, returning the handle list and whether the caller passed an
// array (which relaxes per-vertex error handling, spec §4.4 bullet 5).
func normalizeVertices(v any) (handles []string, wasArray bool, err error) {
	if arr, ok := v.([]any); ok {
		handles = make([]string, 0, len(arr))
		for _, elem := range arr {
			h, err := VertexHandle(elem)
			if err != nil {
				return nil, true, err
			}
			handles = append(handles, h)
		}
		return handles, true, nil
	}
	h, err := VertexHandle(v)
	if err != nil {
		return nil, false, err
	}
	return []string{h}, false, nil
}

// Edges produces all edges terminating at v in the given direction (spec
// §4.4 bullet 5). Per-vertex lookup errors are ignored when v is an
// array (best-effort over the batch); for a single vertex they surface,
// except ELEMENT_NOT_FOUND ("collection not found"), which is always
// ignored.
func (c *Collection) Edges(ctx context.Context, idx EdgeIndex, v any, dir Direction) ([]map[string]any, error) {
	handles, wasArray, err := normalizeVertices(v)
	if err != nil {
		return nil, err
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	if err := tc.RequireEdgeCollection(); err != nil {
		finishErr = err
		return nil, err
	}

	var g errgroup.Group
	rowsPerVertex := make([][]mvcc.Masterpointer, len(handles))
	for i, h := range handles {
		i, h := i, h
		g.Go(func() error {
			rows, err := lookupEdgesForVertex(idx, h, dir)
			if err != nil {
				if aqlerrors.IsCode(err, aqlerrors.ElementNotFound) || wasArray {
					return nil
				}
				return err
			}
			rowsPerVertex[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		finishErr = err
		return nil, err
	}

	var all []mvcc.Masterpointer
	for _, rows := range rowsPerVertex {
		all = append(all, rows...)
	}
	docs, err := c.materialize(tc, all)
	if err != nil {
		finishErr = err
		return nil, err
	}
	return docs, nil
}

// InEdges is Edges with direction IN.
func (c *Collection) InEdges(ctx context.Context, idx EdgeIndex, v any) ([]map[string]any, error) {
	return c.Edges(ctx, idx, v, DirIn)
}

// OutEdges is Edges with direction OUT.
func (c *Collection) OutEdges(ctx context.Context, idx EdgeIndex, v any) ([]map[string]any, error) {
	return c.Edges(ctx, idx, v, DirOut)
}

func lookupEdgesForVertex(idx EdgeIndex, handle string, dir Direction) ([]mvcc.Masterpointer, error) {
	switch dir {
	case DirIn:
		return idx.LookupTo(handle)
	case DirOut:
		return idx.LookupFrom(handle)
	case DirAny:
		in, err := idx.LookupTo(handle)
		if err != nil {
			return nil, err
		}
		out, err := idx.LookupFrom(handle)
		if err != nil {
			return nil, err
		}
		// Multiset union: a self-loop legitimately appears once from each
		// lookup (spec §8 "Edge direction duality").
		return append(in, out...), nil
	default:
		return nil, fmt.Errorf("collection: unknown edge direction %d", dir)
	}
}

