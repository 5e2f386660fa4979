package collection

import (
	"github.com/valyala/fastjson"

	"github.com/arangodb/aqlcore/aqlerrors"
)

// ParseExample parses a raw JSON object into the loosely-typed example
// map ByExample/ByExampleHash/ByExampleSkiplist expect, using fastjson
// rather than encoding/json so a malformed caller-supplied example is
// rejected without reflection-based unmarshaling overhead (spec §4.4
// bullet 2/3/4 — examples are always flat attribute/value objects).
func ParseExample(raw []byte) (map[string]any, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, aqlerrors.Wrap(aqlerrors.BadParameter, err, "parse example")
	}
	obj, err := v.Object()
	if err != nil {
		return nil, aqlerrors.Wrap(aqlerrors.BadParameter, err, "example must be a JSON object")
	}
	out := make(map[string]any, obj.Len())
	var walkErr error
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if walkErr != nil {
			return
		}
		goVal, err := fastjsonToGo(val)
		if err != nil {
			walkErr = err
			return
		}
		out[string(key)] = goVal
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func fastjsonToGo(v *fastjson.Value) (any, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeNumber:
		return v.GetFloat64(), nil
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			elem, err := fastjsonToGo(item)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case fastjson.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, obj.Len())
		var walkErr error
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if walkErr != nil {
				return
			}
			elem, err := fastjsonToGo(val)
			if err != nil {
				walkErr = err
				return
			}
			out[string(key)] = elem
		})
		return out, walkErr
	default:
		return nil, aqlerrors.Internalf("unsupported JSON value type in example: %v", v.Type())
	}
}
