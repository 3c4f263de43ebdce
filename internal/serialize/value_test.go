package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	arr := values.Array{Elements: []values.Value{values.Int{Value: 1}, values.Text{Value: "x"}}}
	obj := values.NewObject()
	obj.Set("gold", values.Int{Value: 5})
	obj.Set("name", values.Text{Value: "Mira"})

	cases := []values.Value{
		values.Null{},
		values.Bool{Value: true},
		values.Int{Value: -7},
		values.Number{Value: 3.5},
		values.Text{Value: "hello"},
		values.CharacterRef{Name: "Mira"},
		values.FunctionRef{Name: "AddGold"},
		arr,
		obj,
	}

	for _, v := range cases {
		raw, err := encodeValue(v)
		require.NoError(t, err)
		decoded, err := decodeValue(raw)
		require.NoError(t, err)
		assert.True(t, values.Equal(v, decoded), "round trip mismatch for %#v -> %#v", v, decoded)
	}
}

func TestEncodeValueEscapesFieldNamesWithMetacharacters(t *testing.T) {
	obj := values.NewObject()
	obj.Set("a.b", values.Int{Value: 1})

	raw, err := encodeValue(obj)
	require.NoError(t, err)
	decoded, err := decodeValue(raw)
	require.NoError(t, err)

	out, ok := decoded.(*values.Object)
	require.True(t, ok)
	v, ok := out.Get("a.b")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 1}, v)
}

func TestEncodeDeltaOnlyCarriesDivergentFields(t *testing.T) {
	c := store.NewContainer([]string{"gold", "name"}, map[string]values.Value{
		"gold": values.Int{Value: 0},
		"name": values.Text{Value: "stranger"},
	})
	c.Set("gold", values.Int{Value: 10})

	raw, err := encodeDelta(c)
	require.NoError(t, err)
	delta, err := decodeDelta(raw)
	require.NoError(t, err)

	assert.Len(t, delta, 1)
	assert.Equal(t, values.Int{Value: 10}, delta["gold"])
}

func TestEncodeFullCarriesEveryFieldInOrder(t *testing.T) {
	c := store.NewContainer([]string{"a", "b"}, map[string]values.Value{
		"a": values.Int{Value: 1},
		"b": values.Int{Value: 2},
	})

	raw, err := encodeFull(c)
	require.NoError(t, err)
	order, fields, err := decodeFullOrdered(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, values.Int{Value: 1}, fields["a"])
	assert.Equal(t, values.Int{Value: 2}, fields["b"])
}
