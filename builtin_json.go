// builtin_json.go: the json.* category. Dotted paths address nested
// objects ("user.address.city"); array elements are addressed by numeric
// path segments.
package ebscript

import (
	"encoding/json"
	"strconv"
	"strings"
)

func jsonArg(name string, v Value) (interface{}, error) {
	switch v.Kind {
	case KindJSON:
		return v.Data, nil
	case KindString:
		var doc interface{}
		if err := json.Unmarshal([]byte(v.asString()), &doc); err != nil {
			return nil, rtErrf(ParseErrorKind, name, "invalid json: %v", err)
		}
		return doc, nil
	case KindRecord, KindArray:
		return toJSONDoc(v), nil
	default:
		return nil, argErrf(name, "expected a json value, got %s", v.Kind)
	}
}

// walkPath follows all but the last segment of a dotted path and returns
// the containing node plus the final segment.
func walkPath(doc interface{}, path string) (interface{}, string, error) {
	segs := strings.Split(path, ".")
	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, err := pathStep(cur, seg)
		if err != nil {
			return nil, "", err
		}
		cur = next
	}
	return cur, segs[len(segs)-1], nil
}

func pathStep(cur interface{}, seg string) (interface{}, error) {
	switch node := cur.(type) {
	case map[string]interface{}:
		for k, v := range node {
			if strings.EqualFold(k, seg) {
				return v, nil
			}
		}
		return nil, rtErrf(NotFoundError, "", "json path segment %q not found", seg)
	case []interface{}:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return nil, rtErrf(NotFoundError, "", "json path segment %q is not an array index", seg)
		}
		if idx < 0 || idx >= len(node) {
			return nil, rtErrf(IndexError, "", "json index %d out of bounds (length %d)", idx, len(node))
		}
		return node[idx], nil
	default:
		return nil, rtErrf(NotFoundError, "", "json path segment %q addresses a scalar", seg)
	}
}

func registerJSONBuiltins(reg *Registry) {
	def(reg, "json.parse", "Parse a json text into a json value.", KindJSON,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			var doc interface{}
			if err := json.Unmarshal([]byte(args[0].asString()), &doc); err != nil {
				return Null, rtErrf(ParseErrorKind, "json.parse", "invalid json: %v", err)
			}
			return JSONVal(doc), nil
		})

	def(reg, "json.print", "Render a json value, pretty-printed when indent is true.", KindString,
		[]ParamSpec{reqParam("doc", KindNull), optParam("indent", KindBool, BoolVal(false))},
		func(ip *Interp, args []Value) (Value, error) {
			doc, err := jsonArg("json.print", args[0])
			if err != nil {
				return Null, err
			}
			var out []byte
			if args[1].asBool() {
				out, err = json.MarshalIndent(doc, "", "  ")
			} else {
				out, err = json.Marshal(doc)
			}
			if err != nil {
				return Null, rtErrf(ParseErrorKind, "json.print", "cannot render: %v", err)
			}
			return StringVal(string(out)), nil
		})

	def(reg, "json.get", "Read a dotted path; null when absent.", KindNull,
		[]ParamSpec{reqParam("doc", KindNull), reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			doc, err := jsonArg("json.get", args[0])
			if err != nil {
				return Null, err
			}
			parent, last, err := walkPath(doc, args[1].asString())
			if err != nil {
				return Null, nil // absent paths read as null
			}
			v, err := pathStep(parent, last)
			if err != nil {
				return Null, nil
			}
			return fromJSONDoc(v), nil
		})

	def(reg, "json.has", "Whether a dotted path exists.", KindBool,
		[]ParamSpec{reqParam("doc", KindNull), reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			doc, err := jsonArg("json.has", args[0])
			if err != nil {
				return Null, err
			}
			parent, last, err := walkPath(doc, args[1].asString())
			if err != nil {
				return BoolVal(false), nil
			}
			if _, err := pathStep(parent, last); err != nil {
				return BoolVal(false), nil
			}
			return BoolVal(true), nil
		})

	def(reg, "json.set", "Write a value at a dotted path (intermediate objects must exist).", KindJSON,
		[]ParamSpec{reqParam("doc", KindNull), reqParam("path", KindString), reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			doc, err := jsonArg("json.set", args[0])
			if err != nil {
				return Null, err
			}
			parent, last, err := walkPath(doc, args[1].asString())
			if err != nil {
				return Null, err
			}
			switch node := parent.(type) {
			case map[string]interface{}:
				node[last] = toJSONDoc(args[2])
			case []interface{}:
				idx, aerr := strconv.Atoi(last)
				if aerr != nil || idx < 0 || idx >= len(node) {
					return Null, rtErrf(IndexError, "json.set", "bad array index %q", last)
				}
				node[idx] = toJSONDoc(args[2])
			default:
				return Null, rtErrf(NotFoundError, "json.set", "path %q addresses a scalar", args[1].asString())
			}
			return JSONVal(doc), nil
		})

	def(reg, "json.remove", "Delete a key at a dotted path.", KindJSON,
		[]ParamSpec{reqParam("doc", KindNull), reqParam("path", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			doc, err := jsonArg("json.remove", args[0])
			if err != nil {
				return Null, err
			}
			parent, last, err := walkPath(doc, args[1].asString())
			if err != nil {
				return Null, err
			}
			obj, ok := parent.(map[string]interface{})
			if !ok {
				return Null, rtErrf(NotFoundError, "json.remove", "path %q does not address an object key", args[1].asString())
			}
			for k := range obj {
				if strings.EqualFold(k, last) {
					delete(obj, k)
					break
				}
			}
			return JSONVal(doc), nil
		})

	def(reg, "json.keys", "Top-level keys of an object as a string array.", KindArray,
		[]ParamSpec{reqParam("doc", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			doc, err := jsonArg("json.keys", args[0])
			if err != nil {
				return Null, err
			}
			obj, ok := doc.(map[string]interface{})
			if !ok {
				return Null, argErrf("json.keys", "expected a json object")
			}
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for k := range obj {
				a.Items = append(a.Items, StringVal(k))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})
}
