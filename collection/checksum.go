package collection

import (
	"context"
	"hash/crc32"
	"sort"

	"github.com/valyala/fastjson"

	"github.com/arangodb/aqlcore/aqlerrors"
	"github.com/arangodb/aqlcore/mvcc"
)

// Checksum walks every live document under the transaction snapshot,
// CRC32-ing each key, optionally XOR-folding the revision id and (for
// edges) the to/from terminus, and with withData also CRC32-ing a
// canonical stringification of the body. The result is the wrapping
// 32-bit sum of per-document CRCs, together with the collection's
// current revision id (spec §4.4 bullet 9). Checksum is incompatible
// with cluster mode and fails fast (spec §5).
func (c *Collection) Checksum(ctx context.Context, withRevisions, withData bool) (ChecksumResult, error) {
	if c.clusterMode {
		return ChecksumResult{}, aqlerrors.New(aqlerrors.ClusterUnsupported, "checksum is not supported in cluster mode")
	}

	scope, tc, err := c.open(ctx)
	if err != nil {
		return ChecksumResult{}, err
	}
	var finishErr error
	defer func() { _ = scope.Finish(finishErr) }()

	it, err := tc.Scan(ctx)
	if err != nil {
		finishErr = err
		return ChecksumResult{}, err
	}
	defer it.Close()

	reader := tc.Reader()
	var total uint32
	for {
		mp, ok, err := it.Next()
		if err != nil {
			finishErr = err
			return ChecksumResult{}, err
		}
		if !ok {
			break
		}
		docSum, err := checksumDocument(reader, mp, withRevisions, withData)
		if err != nil {
			finishErr = err
			return ChecksumResult{}, err
		}
		total += docSum // wrapping add, spec §4.4 bullet 9
	}

	revision, err := reader.SequenceValue()
	if err != nil {
		finishErr = err
		return ChecksumResult{}, err
	}
	return ChecksumResult{Checksum: total, Revision: revision}, nil
}

func checksumDocument(reader *mvcc.Reader, mp mvcc.Masterpointer, withRevisions, withData bool) (uint32, error) {
	sum := crc32.ChecksumIEEE([]byte(mp.Key))

	if withRevisions {
		sum ^= uint32(mp.Revision) ^ uint32(mp.Revision>>32)
	}

	if mp.ToCollection != "" || mp.FromCollection != "" {
		sum ^= crc32.ChecksumIEEE([]byte(mp.ToCollection + "/" + mp.ToKey))
		sum ^= crc32.ChecksumIEEE([]byte(mp.FromCollection + "/" + mp.FromKey))
	}

	if withData {
		doc, err := reader.ReadDocument(mp)
		if err != nil {
			return 0, err
		}
		canonical, err := canonicalJSON(doc)
		if err != nil {
			return 0, err
		}
		sum ^= crc32.ChecksumIEEE(canonical)
	}

	return sum, nil
}

// canonicalJSON renders doc with sorted object keys, via a fastjson.Arena
// tree (the same fastjson library collection.ParseExample parses with),
// so the checksum is independent of map iteration order.
func canonicalJSON(doc map[string]any) ([]byte, error) {
	var arena fastjson.Arena
	v := goToFastjson(&arena, doc)
	return v.MarshalTo(nil), nil
}

// goToFastjson builds a fastjson.Value tree out of a decoded Go value
// (nil/bool/float64/string/[]any/map[string]any), ordering object keys so
// MarshalTo is deterministic.
func goToFastjson(a *fastjson.Arena, v any) *fastjson.Value {
	switch val := v.(type) {
	case nil:
		return a.NewNull()
	case bool:
		if val {
			return a.NewTrue()
		}
		return a.NewFalse()
	case float64:
		return a.NewNumberFloat64(val)
	case string:
		return a.NewString(val)
	case []any:
		arr := a.NewArray()
		for i, elem := range val {
			arr.SetArrayItem(i, goToFastjson(a, elem))
		}
		return arr
	case map[string]any:
		obj := a.NewObject()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, goToFastjson(a, val[k]))
		}
		return obj
	default:
		return a.NewNull()
	}
}
