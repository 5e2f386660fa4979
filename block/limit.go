package block

import (
	"context"

	"github.com/arangodb/aqlcore/aqlbatch"
)

type limitState int

const (
	limitBeforeOffset limitState = iota
	limitEmitting
	limitDone
)

// Limit carries an offset, a limit, and an optional fullCount flag,
// implementing the three-state machine of spec §4.1.3: discard offset
// rows (S0), emit up to limit rows (S1), then report exhausted (S2),
// optionally tallying the dependency's full row count along the way.
type Limit struct {
	dep       Block
	offset    int
	limit     int
	fullCount bool

	state          limitState
	offsetDiscarded int
	emitted        int
	tailSkipped    int
}

// NewLimit builds a Limit(offset, limit) over dep.
func NewLimit(dep Block, offset, limit int, fullCount bool) *Limit {
	return &Limit{dep: dep, offset: offset, limit: limit, fullCount: fullCount}
}

func (l *Limit) Initialize(ctx context.Context) error { return l.dep.Initialize(ctx) }

func (l *Limit) InitializeCursor(ctx context.Context, items *aqlbatch.Batch, pos int) error {
	l.state = limitBeforeOffset
	l.offsetDiscarded, l.emitted, l.tailSkipped = 0, 0, 0
	return l.dep.InitializeCursor(ctx, items, pos)
}

func (l *Limit) GetOrSkipSome(ctx context.Context, atLeast, atMost int, skipping bool) (*aqlbatch.Batch, int, error) {
	if l.state == limitBeforeOffset {
		if err := l.dischargeOffset(ctx); err != nil {
			return nil, 0, err
		}
	}

	if l.state == limitEmitting {
		want := l.limit - l.emitted
		if want < 0 {
			want = 0
		}
		take := atMost
		if take < 0 || take > want {
			take = want
		}
		if skipping {
			_, n, err := l.dep.GetOrSkipSome(ctx, 0, take, true)
			if err != nil {
				return nil, 0, err
			}
			l.emitted += n
			if l.emitted >= l.limit || !l.dep.HasMore() {
				l.state = limitDone
			}
			return nil, n, nil
		}
		out, err := GetSome(ctx, l.dep, 0, take)
		if err != nil {
			return nil, 0, err
		}
		n := 0
		if out != nil {
			n = out.NumRows()
		}
		l.emitted += n
		if l.emitted >= l.limit || !l.dep.HasMore() {
			l.state = limitDone
		}
		return out, 0, nil
	}

	// S2: done emitting; optionally tally the rest for fullCount.
	if l.fullCount {
		for l.dep.HasMore() {
			if err := checkCancelled(ctx); err != nil {
				return nil, 0, err
			}
			chunk := atMost
			if chunk <= 0 {
				chunk = 1000
			}
			_, n, err := l.dep.GetOrSkipSome(ctx, 0, chunk, true)
			if err != nil {
				return nil, 0, err
			}
			if n == 0 {
				break
			}
			l.tailSkipped += n
		}
	}
	return nil, 0, nil
}

func (l *Limit) dischargeOffset(ctx context.Context) error {
	for l.offsetDiscarded < l.offset && l.dep.HasMore() {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		want := l.offset - l.offsetDiscarded
		_, n, err := l.dep.GetOrSkipSome(ctx, 0, want, true)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		l.offsetDiscarded += n
	}
	l.state = limitEmitting
	return nil
}

// FullCount returns the total number of rows the dependency would have
// produced, valid once fullCount is set and the block has been drained
// to exhaustion (spec §4.1.3).
func (l *Limit) FullCount() int {
	return l.offsetDiscarded + l.emitted + l.tailSkipped
}

func (l *Limit) HasMore() bool {
	return l.state != limitDone || (l.fullCount && l.dep.HasMore())
}

func (l *Limit) Count() int    { return -1 }
func (l *Limit) Remaining() int { return -1 }

func (l *Limit) Shutdown(ctx context.Context, code ShutdownCode) error {
	return l.dep.Shutdown(ctx, code)
}
