package block

import (
	"context"

	"github.com/arangodb/aqlcore/aqlbatch"
)

// NoResults is a leaf that always reports exhausted (spec §4.1.5).
type NoResults struct{}

func NewNoResults() *NoResults { return &NoResults{} }

func (n *NoResults) Initialize(ctx context.Context) error { return nil }
func (n *NoResults) InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error {
	return nil
}

func (n *NoResults) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	return nil, 0, nil
}

func (n *NoResults) HasMore() bool   { return false }
func (n *NoResults) Count() int      { return 0 }
func (n *NoResults) Remaining() int  { return 0 }
func (n *NoResults) Shutdown(ctx context.Context, code ShutdownCode) error {
	return nil
}
