// Package serialize implements the Serializer from spec §4.7: Save
// (§4.7.2), Restore (§4.7.3), and the Fallback behavior (§4.7.5) built on
// top of internal/engine's Resume entry point. Runtime values are
// encoded as small tagged JSON documents built with sjson and read back
// with gjson rather than hand-rolled marshaling or an intermediate
// map[string]any pass.
package serialize

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jeremyfa/loreline-go/internal/values"
)

// encodeValue renders a runtime value as {"t": <kind>, "v": <payload>}.
// Composite payloads (array elements, object fields) are each encoded
// recursively and spliced in as raw JSON, since sjson's path syntax
// would otherwise need per-segment escaping for arbitrary field names.
func encodeValue(v values.Value) (string, error) {
	switch t := v.(type) {
	case nil:
		return sjson.Set("", "t", "null")
	case values.Null:
		return sjson.Set("", "t", "null")
	case values.Bool:
		return tagged("bool", t.Value)
	case values.Int:
		return tagged("int", t.Value)
	case values.Number:
		return tagged("num", t.Value)
	case values.Text:
		return tagged("text", t.Value)
	case values.CharacterRef:
		return tagged("char", t.Name)
	case values.FunctionRef:
		return tagged("func", t.Name)
	case values.Array:
		encoded := make([]json.RawMessage, len(t.Elements))
		for i, el := range t.Elements {
			enc, err := encodeValue(el)
			if err != nil {
				return "", err
			}
			encoded[i] = json.RawMessage(enc)
		}
		raw, err := json.Marshal(encoded)
		if err != nil {
			return "", err
		}
		return taggedRaw("array", raw)
	case *values.Object:
		names := t.Names()
		fields := make(map[string]json.RawMessage, len(names))
		for _, name := range names {
			fv, _ := t.Get(name)
			enc, err := encodeValue(fv)
			if err != nil {
				return "", err
			}
			fields[name] = json.RawMessage(enc)
		}
		fieldsRaw, err := json.Marshal(fields)
		if err != nil {
			return "", err
		}
		orderRaw, err := json.Marshal(names)
		if err != nil {
			return "", err
		}
		doc, err := sjson.Set("", "t", "object")
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, "v.order", string(orderRaw))
		if err != nil {
			return "", err
		}
		return sjson.SetRaw(doc, "v.fields", string(fieldsRaw))
	default:
		return "", fmt.Errorf("serialize: unsupported value kind %T", v)
	}
}

func tagged(tag string, value interface{}) (string, error) {
	doc, err := sjson.Set("", "t", tag)
	if err != nil {
		return "", err
	}
	return sjson.Set(doc, "v", value)
}

func taggedRaw(tag string, raw []byte) (string, error) {
	doc, err := sjson.Set("", "t", tag)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw(doc, "v", string(raw))
}

// decodeValue is encodeValue's inverse, reading the tagged document with
// gjson rather than unmarshaling into a concrete Go type.
func decodeValue(raw string) (values.Value, error) {
	res := gjson.Parse(raw)
	switch tag := res.Get("t").String(); tag {
	case "null":
		return values.Null{}, nil
	case "bool":
		return values.Bool{Value: res.Get("v").Bool()}, nil
	case "int":
		return values.Int{Value: res.Get("v").Int()}, nil
	case "num":
		return values.Number{Value: res.Get("v").Float()}, nil
	case "text":
		return values.Text{Value: res.Get("v").String()}, nil
	case "char":
		return values.CharacterRef{Name: res.Get("v").String()}, nil
	case "func":
		return values.FunctionRef{Name: res.Get("v").String()}, nil
	case "array":
		items := res.Get("v").Array()
		elements := make([]values.Value, len(items))
		for i, item := range items {
			v, err := decodeValue(item.Raw)
			if err != nil {
				return nil, err
			}
			elements[i] = v
		}
		return values.Array{Elements: elements}, nil
	case "object":
		obj := values.NewObject()
		fields := res.Get("v.fields")
		for _, n := range res.Get("v.order").Array() {
			name := n.String()
			v, err := decodeValue(fields.Get(pathEscape(name)).Raw)
			if err != nil {
				return nil, err
			}
			obj.Set(name, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("serialize: unknown value tag %q", tag)
	}
}

// pathEscape escapes the path metacharacters gjson/sjson's dotted path
// syntax treats specially, so a field name containing one of them
// (outside Loreline's own identifier grammar, but not otherwise
// forbidden at this layer) still round-trips.
func pathEscape(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '.', '*', '?', '\\':
			out = append(out, '\\')
		}
		out = append(out, name[i])
	}
	return string(out)
}
