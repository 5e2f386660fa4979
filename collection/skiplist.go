package collection

import (
	"context"

	"github.com/arangodb/aqlcore/aqlerrors"
	"github.com/arangodb/aqlcore/mvcc"
)

// Op is a skiplist condition operator (spec §4.4 bullet 4).
type Op int

const (
	OpEq Op = iota
	OpLt
	OpLte
	OpGt
	OpGte
)

// FieldCond is one `[op, value]` pair against a single indexed field.
type FieldCond struct {
	Op    Op
	Value any
}

// EqualityConstraint is a resolved equality-prefix entry.
type EqualityConstraint struct {
	Field string
	Value any
}

// SkiplistIndex is the storage-layer collaborator for the skiplist
// family (spec §4.4 bullet 4): a sorted index over an ordered field
// list. Out of scope per spec §1; the core only consumes this contract.
type SkiplistIndex interface {
	// Fields returns the index's field list in declaration order.
	Fields() []string
	// QueryEquality resolves an equality prefix — used by both
	// BY_EXAMPLE_SKIPLIST and the equality-only case of
	// BY_CONDITION_SKIPLIST.
	QueryEquality(equalities []EqualityConstraint, skip, limit int, reverse bool) (rows []mvcc.Masterpointer, total int, err error)
	// QueryRange resolves an equality prefix plus a single trailing
	// range field's combined conditions.
	QueryRange(equalities []EqualityConstraint, rangeField string, rangeConds []FieldCond, skip, limit int, reverse bool) (rows []mvcc.Masterpointer, total int, err error)
}

// ByExampleSkiplist walks idx's fields in declared order, emitting
// equality predicates for every field present in example, stopping at
// the first field absent from example, then issues a single equality
// query (spec §4.4 bullet 4, "By example").
func (c *Collection) ByExampleSkiplist(ctx context.Context, idx SkiplistIndex, example map[string]any, skip, limit int, reverse bool) (Result, error) {
	var equalities []EqualityConstraint
	for _, field := range idx.Fields() {
		v, ok := example[field]
		if !ok {
			break
		}
		equalities = append(equalities, EqualityConstraint{Field: field, Value: v})
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return Result{}, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	rows, total, err := idx.QueryEquality(equalities, skip, limit, reverse)
	if err != nil {
		finishErr = err
		return Result{}, err
	}
	docs, err := c.materialize(tc, rows)
	if err != nil {
		finishErr = err
		return Result{}, err
	}
	return Result{Documents: docs, Total: total, Count: len(docs)}, nil
}

// ByConditionSkiplist resolves a per-field condition map against idx's
// field order, enforcing the single-range-field rule: an accumulated
// equality prefix followed by at most one field whose operators are
// combined with left-associative AND (spec §4.4 bullet 4, "By
// condition"). Any field left unconsumed in cond after this walk is an
// invalid combination and fails with BAD_PARAMETER.
func (c *Collection) ByConditionSkiplist(ctx context.Context, idx SkiplistIndex, cond map[string][]FieldCond, skip, limit int, reverse bool) (Result, error) {
	equalities, rangeField, rangeConds, err := resolveSkiplistCondition(idx.Fields(), cond)
	if err != nil {
		return Result{}, err
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return Result{}, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	var rows []mvcc.Masterpointer
	var total int
	if rangeField == "" {
		rows, total, err = idx.QueryEquality(equalities, skip, limit, reverse)
	} else {
		rows, total, err = idx.QueryRange(equalities, rangeField, rangeConds, skip, limit, reverse)
	}
	if err != nil {
		finishErr = err
		return Result{}, err
	}
	docs, err := c.materialize(tc, rows)
	if err != nil {
		finishErr = err
		return Result{}, err
	}
	return Result{Documents: docs, Total: total, Count: len(docs)}, nil
}

// resolveSkiplistCondition implements the AND-combination algorithm
// grounded on SetupConditionsSkiplist: walk fields in index order,
// accumulating a pure-equality prefix; the first field carrying a
// non-equality operator becomes the request's single range field, and
// everything after it must be empty.
func resolveSkiplistCondition(fields []string, cond map[string][]FieldCond) ([]EqualityConstraint, string, []FieldCond, error) {
	var equalities []EqualityConstraint
	rangeField := ""
	var rangeConds []FieldCond
	consumed := make(map[string]bool, len(cond))

	for _, field := range fields {
		fcs, ok := cond[field]
		if !ok {
			break
		}
		consumed[field] = true

		allEq := true
		for _, fc := range fcs {
			if fc.Op != OpEq {
				allEq = false
				break
			}
		}
		if allEq {
			if rangeField != "" {
				return nil, "", nil, aqlerrors.New(aqlerrors.BadParameter, "equality condition on %q after range field %q", field, rangeField)
			}
			for _, fc := range fcs {
				equalities = append(equalities, EqualityConstraint{Field: field, Value: fc.Value})
			}
			continue
		}

		if rangeField != "" {
			return nil, "", nil, aqlerrors.New(aqlerrors.BadParameter, "more than one non-equality range field: %q and %q", rangeField, field)
		}
		rangeField = field
		rangeConds = fcs
		break
	}

	for field := range cond {
		if !consumed[field] {
			return nil, "", nil, aqlerrors.New(aqlerrors.BadParameter, "condition on field %q is not a usable index prefix", field)
		}
	}
	return equalities, rangeField, rangeConds, nil
}
