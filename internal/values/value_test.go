package values_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeremyfa/loreline-go/internal/values"
)

func TestStringify(t *testing.T) {
	cases := []struct {
		name string
		v    values.Value
		want string
	}{
		{"nil", nil, "null"},
		{"null", values.Null{}, "null"},
		{"true", values.Bool{Value: true}, "true"},
		{"false", values.Bool{Value: false}, "false"},
		{"int", values.Int{Value: 42}, "42"},
		{"negative int", values.Int{Value: -7}, "-7"},
		{"number", values.Number{Value: 3.5}, "3.5"},
		{"number whole", values.Number{Value: 2}, "2"},
		{"text", values.Text{Value: "hi"}, "hi"},
		{"character", values.CharacterRef{Name: "Mira"}, "Mira"},
		{"function", values.FunctionRef{Name: "AddGold"}, "AddGold"},
		{"array", values.Array{Elements: []values.Value{values.Int{Value: 1}, values.Text{Value: "a"}}}, "[1, a]"},
		{"empty array", values.Array{}, "[]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, values.Stringify(tc.v))
		})
	}
}

func TestObjectStringifyIsSortedByName(t *testing.T) {
	obj := values.NewObject()
	obj.Set("zeta", values.Int{Value: 1})
	obj.Set("alpha", values.Int{Value: 2})

	assert.Equal(t, "{alpha: 2, zeta: 1}", values.Stringify(obj))
}

func TestObjectPreservesInsertionOrderInNames(t *testing.T) {
	obj := values.NewObject()
	obj.Set("zeta", values.Int{Value: 1})
	obj.Set("alpha", values.Int{Value: 2})

	assert.Equal(t, []string{"zeta", "alpha"}, obj.Names())
}

func TestObjectSetOverwritesWithoutDuplicatingOrder(t *testing.T) {
	obj := values.NewObject()
	obj.Set("gold", values.Int{Value: 1})
	obj.Set("gold", values.Int{Value: 2})

	assert.Equal(t, []string{"gold"}, obj.Names())
	v, ok := obj.Get("gold")
	assert.True(t, ok)
	assert.Equal(t, values.Int{Value: 2}, v)
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    values.Value
		want bool
	}{
		{"nil", nil, false},
		{"null", values.Null{}, false},
		{"true", values.Bool{Value: true}, true},
		{"false", values.Bool{Value: false}, false},
		{"zero int is truthy", values.Int{Value: 0}, true},
		{"empty text is truthy", values.Text{Value: ""}, true},
		{"empty array is truthy", values.Array{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, values.Truthy(tc.v))
		})
	}
}

func TestEqualCrossKindNumeric(t *testing.T) {
	assert.True(t, values.Equal(values.Int{Value: 3}, values.Number{Value: 3.0}))
	assert.True(t, values.Equal(values.Number{Value: 3.0}, values.Int{Value: 3}))
	assert.False(t, values.Equal(values.Int{Value: 3}, values.Number{Value: 3.5}))
}

func TestEqualNilHandling(t *testing.T) {
	assert.True(t, values.Equal(nil, nil))
	assert.False(t, values.Equal(nil, values.Null{}))
	assert.False(t, values.Equal(values.Null{}, nil))
	assert.True(t, values.Equal(values.Null{}, values.Null{}))
}

func TestEqualArraysAndObjectsStructural(t *testing.T) {
	a := values.Array{Elements: []values.Value{values.Int{Value: 1}, values.Text{Value: "x"}}}
	b := values.Array{Elements: []values.Value{values.Int{Value: 1}, values.Text{Value: "x"}}}
	c := values.Array{Elements: []values.Value{values.Int{Value: 1}, values.Text{Value: "y"}}}
	assert.True(t, values.Equal(a, b))
	assert.False(t, values.Equal(a, c))

	o1 := values.NewObject()
	o1.Set("gold", values.Int{Value: 5})
	o2 := values.NewObject()
	o2.Set("gold", values.Int{Value: 5})
	o3 := values.NewObject()
	o3.Set("gold", values.Int{Value: 6})
	assert.True(t, values.Equal(o1, o2))
	assert.False(t, values.Equal(o1, o3))
}

func TestEqualDifferentKindsNeverEqual(t *testing.T) {
	assert.False(t, values.Equal(values.Bool{Value: true}, values.Text{Value: "true"}))
	assert.False(t, values.Equal(values.CharacterRef{Name: "a"}, values.FunctionRef{Name: "a"}))
}

func TestKindTags(t *testing.T) {
	assert.Equal(t, "NULL", values.Null{}.Kind())
	assert.Equal(t, "BOOLEAN", values.Bool{}.Kind())
	assert.Equal(t, "INTEGER", values.Int{}.Kind())
	assert.Equal(t, "NUMBER", values.Number{}.Kind())
	assert.Equal(t, "TEXT", values.Text{}.Kind())
	assert.Equal(t, "CHARACTER", values.CharacterRef{}.Kind())
	assert.Equal(t, "FUNCTION", values.FunctionRef{}.Kind())
	assert.Equal(t, "ARRAY", values.Array{}.Kind())
	assert.Equal(t, "OBJECT", (&values.Object{}).Kind())
}
