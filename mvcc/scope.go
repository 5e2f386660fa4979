package mvcc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arangodb/aqlcore/aqlerrors"
)

// Masterpointer is the storage-layer handle identifying a live document
// version under MVCC (see spec.md GLOSSARY). The storage layer itself —
// shaped-JSON encoding, WAL, on-disk index structures — is out of scope;
// this struct is the contract the core consumes.
type Masterpointer struct {
	Key      string
	Revision uint64
	Deleted  bool

	// From/To are populated only for edge-collection masterpointers.
	FromCollection string
	FromKey        string
	ToCollection   string
	ToKey          string
}

// Shaper resolves an attribute name to an opaque shape-path id and back,
// per collection (spec §4.4 by-example scan, §9 GLOSSARY). An unknown
// attribute name is reported via ok=false, never an error — callers
// translate that into the "empty result" sentinel rather than a failure.
type Shaper interface {
	PathID(collection, attribute string) (pathID int64, ok bool)
	Attribute(collection string, pathID int64) (attribute string, ok bool)
}

// ShapedCodec encodes/decodes example values and whole documents to/from
// the storage layer's shaped binary form. Out of scope per spec §1; the
// core only consumes this contract.
type ShapedCodec interface {
	EncodeValue(v any) ([]byte, error)
	DecodeDocument(body []byte) (map[string]any, error)
	EncodeDocument(doc map[string]any) ([]byte, error)
}

// TemporalTx is the MVCC transaction contract the storage layer
// provides, grounded on the teacher's kv.TemporalTx.GetAsOf pattern: a
// read resolves the value visible as of a transaction-scoped snapshot
// number, never the live head.
type TemporalTx interface {
	GetAsOf(domain Domain, key []byte, txNum uint64) (value []byte, ok bool, err error)
	Put(domain Domain, key, value []byte) error
	Commit() error
	Rollback() error
}

// Database opens MVCC transactions; the storage engine behind it is out
// of scope (spec §1).
type Database interface {
	BeginTemporal(ctx context.Context) (TemporalTx, txNum uint64, err error)
}

// Iterator walks the live masterpointers of a collection under a fixed
// snapshot, in insertion order. It must not escape the transaction scope
// it was created from (spec §5 "Index iterators and masterpointer
// iterators must not escape the scope").
type Iterator interface {
	Next() (mp Masterpointer, ok bool, err error)
	Close() error
}

// Scanner performs a full live-key scan of a collection as of a
// snapshot, backing By-example (scan), Random, First/Last, and Checksum.
// The storage layer that implements it is out of scope (spec §1); a
// Database may optionally implement Scanner.
type Scanner interface {
	ScanLive(ctx context.Context, collection string, txNum uint64) (Iterator, error)
}

// Scope is the transaction scope (T): scoped acquisition of an MVCC
// transaction over an explicit, possibly empty, collection list. It
// guarantees commit-or-rollback on every exit path (spec §3 "Transaction
// Scope").
type Scope struct {
	db          Database
	tx          TemporalTx
	txNum       uint64
	txID        uuid.UUID
	shaper      Shaper
	codec       ShapedCodec
	collections map[string]*TC
	finished    bool
}

// TxID is this scope's unique transaction identifier, minted fresh on
// Open. The package itself does not log it (spec §9 GLOSSARY
// "Transaction Scope").
func (s *Scope) TxID() uuid.UUID { return s.txID }

// Open acquires a transaction bound to the current activation over the
// given collections. Every read primitive in package collection opens
// one of these first (spec §4.4 "All operations open a TransactionScope
// first").
func Open(ctx context.Context, db Database, shaper Shaper, codec ShapedCodec, collections map[string]CollectionKind) (*Scope, error) {
	tx, txNum, err := db.BeginTemporal(ctx)
	if err != nil {
		return nil, fmt.Errorf("mvcc: begin transaction: %w", err)
	}
	s := &Scope{
		db:          db,
		tx:          tx,
		txNum:       txNum,
		txID:        uuid.New(),
		shaper:      shaper,
		codec:       codec,
		collections: make(map[string]*TC, len(collections)),
	}
	for name, kind := range collections {
		s.collections[name] = &TC{scope: s, name: name, kind: kind}
	}
	return s, nil
}

// Transaction exposes the underlying MVCC transaction.
func (s *Scope) Transaction() TemporalTx { return s.tx }

// Collection returns the handle for cid, opening it lazily if it was not
// named at Open time.
func (s *Scope) Collection(cid string, kind CollectionKind) *TC {
	if tc, ok := s.collections[cid]; ok {
		return tc
	}
	tc := &TC{scope: s, name: cid, kind: kind}
	s.collections[cid] = tc
	return tc
}

// Finish commits if cause is nil, otherwise rolls back, and is
// idempotent — safe to call from a defer after an earlier explicit
// Finish(nil) on the success path. This is the mechanism that gives the
// scope its "guaranteed release on all exit paths" property.
func (s *Scope) Finish(cause error) error {
	if s.finished {
		return nil
	}
	s.finished = true
	if cause != nil {
		if err := s.tx.Rollback(); err != nil {
			return fmt.Errorf("mvcc: rollback after %v: %w", cause, err)
		}
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("mvcc: commit: %w", err)
	}
	return nil
}

// TC is a per-collection handle exposing the document shaper and the
// masterpointer manager (spec §3: "TC exposes the document shaper and
// the masterpointer manager").
type TC struct {
	scope *Scope
	name  string
	kind  CollectionKind
}

func (tc *TC) Name() string           { return tc.name }
func (tc *TC) Kind() CollectionKind   { return tc.kind }
func (tc *TC) Shaper() Shaper         { return tc.scope.shaper }
func (tc *TC) Codec() ShapedCodec     { return tc.scope.codec }
func (tc *TC) Transaction() TemporalTx { return tc.scope.tx }
func (tc *TC) TxNum() uint64          { return tc.scope.txNum }

// RequireEdgeCollection returns a COLLECTION_TYPE_INVALID error unless tc
// names an edge collection (spec §6 EDGES/INEDGES/OUTEDGES).
func (tc *TC) RequireEdgeCollection() error {
	if tc.kind != KindEdge {
		return aqlerrors.New(aqlerrors.CollectionTypeInvalid, "collection %q is not an edge collection", tc.name)
	}
	return nil
}

// Scan opens a live-key iterator over tc as of the scope's snapshot. It
// fails with NOT_IMPLEMENTED if the storage layer behind the scope's
// Database does not implement Scanner.
func (tc *TC) Scan(ctx context.Context) (Iterator, error) {
	scanner, ok := tc.scope.db.(Scanner)
	if !ok {
		return nil, aqlerrors.New(aqlerrors.NotImplemented, "storage backend does not support collection scans")
	}
	it, err := scanner.ScanLive(ctx, tc.name, tc.scope.txNum)
	if err != nil {
		return nil, fmt.Errorf("mvcc: scan %s: %w", tc.name, err)
	}
	return it, nil
}
