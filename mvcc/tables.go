// Package mvcc implements the transaction scope (T): scoped acquisition
// of an MVCC transaction over zero or more collections, with guaranteed
// commit-or-rollback on every exit path, and the per-collection handles
// the collection read primitives (package collection) build on.
package mvcc

// Domain names the logical key space a masterpointer lookup resolves
// against, mirroring the teacher's table-constant layout (one named
// constant per key space, documented with its key/value shape) adapted
// from a block-history domain split to a document-collection one.
type Domain string

const (
	// DocumentsDomain holds the current masterpointer for each live key
	// in a collection.
	// key   - collection name + "/" + document key
	// value - masterpointer (see Masterpointer)
	DocumentsDomain Domain = "Documents"

	// RevisionsDomain holds every stored revision of a document's body,
	// keyed by revision id; Reader.ReadDocument resolves a masterpointer's
	// revision to its body here.
	// key   - collection name + "/" + document key + revision id (big-endian uint64)
	// value - encoded document body as of that revision
	RevisionsDomain Domain = "Revisions"

	// EdgesFromDomain indexes edges by their _from vertex.
	// key   - edge collection name + "/" + from vertex handle
	// value - edge masterpointer
	EdgesFromDomain Domain = "EdgesFrom"

	// EdgesToDomain indexes edges by their _to vertex.
	// key   - edge collection name + "/" + to vertex handle
	// value - edge masterpointer
	EdgesToDomain Domain = "EdgesTo"

	// HashIndexDomain holds hash-index entries keyed by the concatenated
	// shaped values of the index's path list, in path order.
	// key   - collection name + "/" + index name + "/" + shaped key
	// value - masterpointer
	HashIndexDomain Domain = "HashIndex"

	// SkiplistIndexDomain holds skiplist (sorted) index entries.
	// key   - collection name + "/" + index name + "/" + shaped key (order-preserving encoding)
	// value - masterpointer
	SkiplistIndexDomain Domain = "SkiplistIndex"

	// SequenceDomain holds the collection's insertion-order sequence
	// counter, read by the Random sampler and reported as Checksum's
	// revision.
	// key   - collection name
	// value - monotonically increasing sequence number (uint64)
	SequenceDomain Domain = "Sequence"
)

// CollectionKind distinguishes document collections from edge
// collections, mirroring the COLLECTION_TYPE_INVALID error surfaced when
// an edge-only operation (EDGES, INEDGES, OUTEDGES) is run against a
// document collection.
type CollectionKind int

const (
	KindDocument CollectionKind = iota
	KindEdge
)
