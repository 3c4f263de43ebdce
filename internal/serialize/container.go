package serialize

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// encodeDelta renders a container's Delta (spec §4.7.1: "only fields
// whose current value differs from the initial declared value") as one
// flat JSON object keyed by field name.
func encodeDelta(c *store.Container) (string, error) {
	delta := c.Delta()
	doc := "{}"
	for name, v := range delta {
		enc, err := encodeValue(v)
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, pathEscape(name), enc)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

// encodeFull renders every field of c, not just its delta. Used for a
// scope's own temporary local state (spec §4.7.1's per-scope "local
// state" field): a temporary container has no companion entry elsewhere
// in the save to reconstruct declared defaults from, so the full current
// value of each field is carried instead of a delta.
func encodeFull(c *store.Container) (string, error) {
	doc := "{}"
	for _, name := range c.Names() {
		v, _ := c.Get(name)
		enc, err := encodeValue(v)
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, pathEscape(name), enc)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

// decodeDelta is encodeDelta's inverse, reading with gjson rather than
// unmarshaling into a concrete Go type. It also serves as decodeFull's
// inverse, since both encode a flat object of name -> tagged value.
func decodeDelta(raw string) (map[string]values.Value, error) {
	_, out, err := decodeFullOrdered(raw)
	return out, err
}

// decodeFullOrdered is decodeDelta plus the field names in the order
// they appear in the source document, needed to rebuild a temporary
// local state container's Names() order (spec §4.7.1's per-scope "local
// state" field carries no separate order list of its own, unlike an
// object value's explicit "order" array).
func decodeFullOrdered(raw string) ([]string, map[string]values.Value, error) {
	var order []string
	out := map[string]values.Value{}
	var decodeErr error
	gjson.Parse(raw).ForEach(func(key, value gjson.Result) bool {
		v, err := decodeValue(value.Raw)
		if err != nil {
			decodeErr = err
			return false
		}
		name := key.String()
		order = append(order, name)
		out[name] = v
		return true
	})
	if decodeErr != nil {
		return nil, nil, decodeErr
	}
	return order, out, nil
}
