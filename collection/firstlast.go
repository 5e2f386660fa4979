package collection

import (
	"context"

	"github.com/arangodb/aqlcore/aqlerrors"
	"github.com/arangodb/aqlcore/mvcc"
)

// First returns the first n insertions in the collection's masterpointer
// order as an array, or, when n is nil, a single document (or nil if the
// collection is empty). n < 1 is invalid (spec §4.4 bullet 6).
func (c *Collection) First(ctx context.Context, n *int) (any, error) {
	return c.firstOrLast(ctx, n, true)
}

// Last is First's counterpart over the tail of the masterpointer order.
func (c *Collection) Last(ctx context.Context, n *int) (any, error) {
	return c.firstOrLast(ctx, n, false)
}

func (c *Collection) firstOrLast(ctx context.Context, n *int, first bool) (any, error) {
	if n != nil && *n < 1 {
		return nil, aqlerrors.New(aqlerrors.BadParameter, "n must be >= 1")
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	it, err := tc.Scan(ctx)
	if err != nil {
		finishErr = err
		return nil, err
	}
	defer it.Close()

	want := 1
	if n != nil {
		want = *n
	}

	var window []mvcc.Masterpointer
	for {
		mp, ok, err := it.Next()
		if err != nil {
			finishErr = err
			return nil, err
		}
		if !ok {
			break
		}
		if first {
			window = append(window, mp)
			if len(window) >= want {
				break
			}
			continue
		}
		// Last: keep only the trailing `want` masterpointers seen so far.
		window = append(window, mp)
		if len(window) > want {
			window = window[1:]
		}
	}

	docs, err := c.materialize(tc, window)
	if err != nil {
		finishErr = err
		return nil, err
	}

	if n == nil {
		if len(docs) == 0 {
			return nil, nil
		}
		return docs[0], nil
	}
	return docs, nil
}
