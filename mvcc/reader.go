package mvcc

import (
	"encoding/binary"
	"fmt"
)

// Reader resolves masterpointers and documents for one collection under
// the transaction snapshot, adapted from the teacher's HistoryReaderV3:
// every lookup goes through TemporalTx.GetAsOf(domain, key, txNum) so
// reads observe the snapshot the scope was opened under, never the live
// head (spec §3 "provides the snapshot under which all reads observe a
// consistent view").
type Reader struct {
	tc *TC
}

// Reader returns the masterpointer reader for tc.
func (tc *TC) Reader() *Reader { return &Reader{tc: tc} }

// ReadMasterpointer resolves the live masterpointer for key as of the
// reader's snapshot. ok is false when no such key exists or it was
// deleted as of this snapshot — never an error.
func (r *Reader) ReadMasterpointer(key string) (mp Masterpointer, ok bool, err error) {
	enc, found, err := r.tc.Transaction().GetAsOf(DocumentsDomain, []byte(r.tc.name+"/"+key), r.tc.TxNum())
	if err != nil {
		return Masterpointer{}, false, fmt.Errorf("mvcc: read masterpointer %s/%s: %w", r.tc.name, key, err)
	}
	if !found || len(enc) == 0 {
		return Masterpointer{}, false, nil
	}
	mp, err = decodeMasterpointer(enc)
	if err != nil {
		return Masterpointer{}, false, fmt.Errorf("mvcc: decode masterpointer %s/%s: %w", r.tc.name, key, err)
	}
	mp.Key = key
	if mp.Deleted {
		return Masterpointer{}, false, nil
	}
	return mp, true, nil
}

// ReadDocument resolves and decodes the full document body behind mp.
func (r *Reader) ReadDocument(mp Masterpointer) (map[string]any, error) {
	enc, found, err := r.tc.Transaction().GetAsOf(RevisionsDomain, revisionKey(r.tc.name, mp.Key, mp.Revision), r.tc.TxNum())
	if err != nil {
		return nil, fmt.Errorf("mvcc: read document body %s/%s@%d: %w", r.tc.name, mp.Key, mp.Revision, err)
	}
	if !found {
		return nil, fmt.Errorf("mvcc: document body %s/%s@%d not found", r.tc.name, mp.Key, mp.Revision)
	}
	doc, err := r.tc.Codec().DecodeDocument(enc)
	if err != nil {
		return nil, fmt.Errorf("mvcc: decode document body %s/%s@%d: %w", r.tc.name, mp.Key, mp.Revision, err)
	}
	return doc, nil
}

// SequenceValue returns the collection's current insertion-order
// sequence counter (the Random sampler and Checksum read off this).
func (r *Reader) SequenceValue() (uint64, error) {
	enc, found, err := r.tc.Transaction().GetAsOf(SequenceDomain, []byte(r.tc.name), r.tc.TxNum())
	if err != nil {
		return 0, fmt.Errorf("mvcc: read sequence for %s: %w", r.tc.name, err)
	}
	if !found || len(enc) < 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(enc), nil
}

// RevisionKey exposes the revision-domain key encoding for storage
// backends and tests that need to Put document bodies compatible with
// Reader.ReadDocument.
func RevisionKey(collection, key string, revision uint64) []byte {
	return revisionKey(collection, key, revision)
}

func revisionKey(collection, key string, revision uint64) []byte {
	k := append([]byte(collection+"/"+key), make([]byte, 8)...)
	binary.BigEndian.PutUint64(k[len(k)-8:], revision)
	return k
}

// decodeMasterpointer decodes the fixed binary layout Put by the storage
// layer: revision(8) | deleted(1) | key-len(2) | key | fromColl-len(2) |
// fromColl | fromKey-len(2) | fromKey | toColl-len(2) | toColl |
// toKey-len(2) | toKey. Document collections encode zero-length from/to
// segments.
func decodeMasterpointer(enc []byte) (Masterpointer, error) {
	if len(enc) < 9 {
		return Masterpointer{}, fmt.Errorf("masterpointer encoding too short: %d bytes", len(enc))
	}
	mp := Masterpointer{
		Revision: binary.BigEndian.Uint64(enc[0:8]),
		Deleted:  enc[8] != 0,
	}
	off := 9
	var err error
	mp.Key, off, err = readLenPrefixed(enc, off)
	if err != nil {
		return Masterpointer{}, err
	}
	mp.FromCollection, off, err = readLenPrefixed(enc, off)
	if err != nil {
		return Masterpointer{}, err
	}
	mp.FromKey, off, err = readLenPrefixed(enc, off)
	if err != nil {
		return Masterpointer{}, err
	}
	mp.ToCollection, off, err = readLenPrefixed(enc, off)
	if err != nil {
		return Masterpointer{}, err
	}
	mp.ToKey, _, err = readLenPrefixed(enc, off)
	if err != nil {
		return Masterpointer{}, err
	}
	return mp, nil
}

func readLenPrefixed(enc []byte, off int) (string, int, error) {
	if off+2 > len(enc) {
		return "", 0, fmt.Errorf("masterpointer encoding truncated at offset %d", off)
	}
	n := int(binary.BigEndian.Uint16(enc[off : off+2]))
	off += 2
	if off+n > len(enc) {
		return "", 0, fmt.Errorf("masterpointer encoding truncated field at offset %d", off)
	}
	return string(enc[off : off+n]), off + n, nil
}

// DecodeMasterpointer exposes decodeMasterpointer for in-memory storage
// backends that need to read back what EncodeMasterpointer produced.
func DecodeMasterpointer(enc []byte) (Masterpointer, error) {
	return decodeMasterpointer(enc)
}

// EncodeMasterpointer is the inverse of decodeMasterpointer, exposed for
// in-memory test backends that need to Put masterpointers compatible
// with Reader.
func EncodeMasterpointer(mp Masterpointer) []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint64(buf[0:8], mp.Revision)
	if mp.Deleted {
		buf[8] = 1
	}
	for _, s := range []string{mp.Key, mp.FromCollection, mp.FromKey, mp.ToCollection, mp.ToKey} {
		lenBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(lenBuf, uint16(len(s)))
		buf = append(buf, lenBuf...)
		buf = append(buf, s...)
	}
	return buf
}
