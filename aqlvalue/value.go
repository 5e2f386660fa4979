// Package aqlvalue implements the AQL query value (V): a closed tagged
// union carrying one of an empty marker, an owned JSON tree, a borrowed
// reference to a shaped document, a lazy integer range, or a nested
// vector of item batches (a subquery result). See spec.md §3/§4.2.
//
// Destruction is explicit — there is no finalizer and no reference
// counting. A Value may be silently aliased across cells of different
// batches (structural sharing), so callers must route every destroy
// through the batch's identity-keyed de-duplication rather than calling
// Destroy directly on a shared value.
//
// Every owned payload is held behind a pointer box, even JSON and DOCVEC,
// mirroring the original union-of-pointers representation this type is
// grounded on: equality and hashing are on that pointer, not on the
// payload's structure.
package aqlvalue

import (
	"fmt"
	"strconv"
)

// Tag identifies which payload a Value currently carries.
type Tag uint8

const (
	Empty Tag = iota
	JSON
	Shaped
	DocVec
	Range
)

func (t Tag) String() string {
	switch t {
	case Empty:
		return "EMPTY"
	case JSON:
		return "JSON"
	case Shaped:
		return "SHAPED"
	case DocVec:
		return "DOCVEC"
	case Range:
		return "RANGE"
	default:
		return "UNKNOWN"
	}
}

// ShapedRef is a borrowed reference into a document's storage-layer
// masterpointer marker. Its lifetime is owned by the enclosing
// transaction (mvcc.Scope), not by any Value or Batch that holds it —
// copying a ShapedRef never clones storage.
type ShapedRef struct {
	Collection string
	Key        string
	Revision   uint64
}

// IntRange is the RANGE payload: a closed integer interval [Low, High].
type IntRange struct {
	Low  int64
	High int64
}

// Len reports the number of integers in the interval, inclusive.
func (r IntRange) Len() int64 {
	if r.High < r.Low {
		return 0
	}
	return r.High - r.Low + 1
}

// DocVecBatch is the minimal shape aqlvalue needs from an item batch to
// hold a DOCVEC payload without importing aqlbatch (which itself imports
// aqlvalue). aqlbatch.Batch satisfies this interface.
type DocVecBatch interface {
	Destroy()
	NumRows() int
}

// jsonBox and docvecBox give the JSON and DOCVEC variants a stable,
// comparable pointer identity, exactly like the C++ union's Json*/vector*
// members.
type jsonBox struct{ v any }
type docvecBox struct{ batches []DocVecBatch }

// Value is the tagged union. The zero Value is EMPTY.
type Value struct {
	tag    Tag
	json   *jsonBox
	shaped *ShapedRef
	docvec *docvecBox
	rng    *IntRange
}

// NewEmpty returns the EMPTY value.
func NewEmpty() Value { return Value{tag: Empty} }

// NewJSON wraps an owned structured JSON tree.
func NewJSON(v any) Value { return Value{tag: JSON, json: &jsonBox{v: v}} }

// NewShaped wraps a borrowed shaped-document reference.
func NewShaped(ref *ShapedRef) Value { return Value{tag: Shaped, shaped: ref} }

// NewDocVec wraps an owned, ordered sequence of item batches.
func NewDocVec(batches []DocVecBatch) Value {
	return Value{tag: DocVec, docvec: &docvecBox{batches: batches}}
}

// NewRange wraps an owned integer interval.
func NewRange(low, high int64) Value {
	return Value{tag: Range, rng: &IntRange{Low: low, High: high}}
}

// Tag reports which variant v currently holds.
func (v Value) Tag() Tag { return v.tag }

// IsEmpty reports whether v is the EMPTY variant (invariant (b): EMPTY
// never frees anything).
func (v Value) IsEmpty() bool { return v.tag == Empty }

// JSON returns the underlying JSON tree; valid only when Tag() == JSON.
func (v Value) JSON() any {
	if v.json == nil {
		return nil
	}
	return v.json.v
}

// Shaped returns the underlying shaped reference; valid only when
// Tag() == Shaped.
func (v Value) Shaped() *ShapedRef { return v.shaped }

// DocVec returns the underlying batch sequence; valid only when
// Tag() == DocVec.
func (v Value) DocVec() []DocVecBatch {
	if v.docvec == nil {
		return nil
	}
	return v.docvec.batches
}

// IntRange returns the underlying interval; valid only when Tag() == Range.
func (v Value) IntRange() IntRange {
	if v.rng == nil {
		return IntRange{}
	}
	return *v.rng
}

// IdentityKey returns an opaque, comparable key identifying the value's
// owned payload (spec §3: "equality and hash are identity-based on the
// owned payload pointer"). Two non-EMPTY values share a key iff they
// alias the same storage. aqlbatch uses this to back its identity-keyed
// destruction and cloning sets. EMPTY always returns nil and must never
// be used as a dedup key (invariant (b): EMPTY never frees anything).
func (v Value) IdentityKey() any {
	switch v.tag {
	case Empty:
		return nil
	case JSON:
		return v.json
	case Shaped:
		return v.shaped
	case DocVec:
		return v.docvec
	case Range:
		return v.rng
	default:
		return nil
	}
}

// Destroy frees any heap resources owned by v. Destroying an EMPTY value
// is a no-op (invariant (b)). Destroying a DOCVEC value destroys every
// batch it holds (invariant: "destroying a DOCVEC destroys its batches").
// Shaped references are owned by the transaction, not v, so Destroy does
// not touch storage for Shaped.
func (v *Value) Destroy() {
	if v.tag == DocVec && v.docvec != nil {
		for _, b := range v.docvec.batches {
			if b != nil {
				b.Destroy()
			}
		}
	}
	v.Erase()
}

// Erase nulls v into EMPTY without freeing anything — used when ownership
// of the payload has been transferred elsewhere (invariant (c)).
func (v *Value) Erase() {
	v.json = nil
	v.shaped = nil
	v.docvec = nil
	v.rng = nil
	v.tag = Empty
}

// Clone deep-copies JSON, DOCVEC and RANGE payloads; for SHAPED it copies
// only the reference, since the underlying marker is owned by the
// transaction (spec §4.2).
func (v Value) Clone() Value {
	switch v.tag {
	case Empty:
		return NewEmpty()
	case JSON:
		return NewJSON(cloneJSON(v.json.v))
	case Shaped:
		ref := *v.shaped
		return NewShaped(&ref)
	case DocVec:
		// DOCVEC batches are the subquery's read-only result; cloning the
		// box is sufficient — contained batches stay singly owned, per the
		// erase/clone discipline Batch.Slice uses for shared cells.
		cp := make([]DocVecBatch, len(v.docvec.batches))
		copy(cp, v.docvec.batches)
		return NewDocVec(cp)
	case Range:
		return NewRange(v.rng.Low, v.rng.High)
	default:
		return NewEmpty()
	}
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, val := range t {
			cp[k] = cloneJSON(val)
		}
		return cp
	case []any:
		cp := make([]any, len(t))
		for i, val := range t {
			cp[i] = cloneJSON(val)
		}
		return cp
	default:
		// strings, float64, bool, nil are immutable in Go's json
		// representation and need no deep copy.
		return v
	}
}

// IsTrue implements the truth rule of spec §3(d): true only for JSON
// `true`, any non-zero number, or any non-empty string. Every other
// value — including SHAPED — is falsy.
func (v Value) IsTrue() bool {
	if v.tag != JSON || v.json == nil {
		return false
	}
	switch t := v.json.v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

// ToString renders v for diagnostics/logging. Shaped references render as
// their document handle.
func (v Value) ToString() string {
	switch v.tag {
	case Empty:
		return ""
	case JSON:
		return jsonToString(v.json.v)
	case Shaped:
		return v.shaped.Collection + "/" + v.shaped.Key
	case DocVec:
		return fmt.Sprintf("[docvec: %d batches]", len(v.docvec.batches))
	case Range:
		return fmt.Sprintf("[%d..%d]", v.rng.Low, v.rng.High)
	default:
		return ""
	}
}

func jsonToString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ToJSON renders v as a plain `any` suitable for encoding/json or
// valyala/fastjson marshaling. SHAPED values must be resolved by the
// caller (mvcc knows how to materialize a ShapedRef's body); ToJSON
// renders the reference itself as a document-handle string as a
// fallback.
func (v Value) ToJSON() any {
	switch v.tag {
	case Empty:
		return nil
	case JSON:
		return v.json.v
	case Shaped:
		return v.shaped.Collection + "/" + v.shaped.Key
	case DocVec:
		out := make([]any, len(v.docvec.batches))
		for i, b := range v.docvec.batches {
			out[i] = fmt.Sprintf("<batch rows=%d>", b.NumRows())
		}
		return out
	case Range:
		out := make([]any, 0, v.rng.Len())
		for i := v.rng.Low; i <= v.rng.High; i++ {
			out = append(out, float64(i))
		}
		return out
	default:
		return nil
	}
}
