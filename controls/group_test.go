package controls_test

import (
	"testing"

	"github.com/delaneyj/formsignals/controls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func required(v any) string {
	if s, _ := v.(string); s == "" {
		return "required"
	}
	return ""
}

func TestGroup(t *testing.T) {
	t.Run("fields come from the initial record", func(t *testing.T) {
		g := controls.New(map[string]any{"b": 2, "a": 1})
		assert.Equal(t, []string{"a", "b"}, g.FieldNames())
		assert.Equal(t, 1, g.Field("a").Value())
		assert.Nil(t, g.Field("missing"))
		assert.Same(t, g, g.Field("a").Parent())
		assert.Len(t, g.Fields(), 2)
	})

	t.Run("declared fields without an initial value hold nil", func(t *testing.T) {
		g := controls.New(nil, controls.WithFields(controls.Fields{
			"name": controls.Def(),
			"tags": controls.Def(controls.WithElems(controls.Def())),
		}))
		require.Equal(t, controls.KindGroup, g.Kind())
		assert.Nil(t, g.Field("name").Value())
		assert.Equal(t, controls.KindArray, g.Field("tags").Kind())
		assert.Equal(t, 0, g.Field("tags").Len())
	})

	t.Run("validity aggregates children", func(t *testing.T) {
		g := controls.New(map[string]any{"a": "x", "b": "y"}, controls.WithFields(controls.Fields{
			"b": controls.Def(controls.WithValidator(required)),
		}))
		require.True(t, g.Valid())
		calls, flags := recordFlags(g, controls.FlagValid)

		g.Field("b").SetValue("")
		assert.False(t, g.Valid())
		assert.False(t, g.Field("b").Valid())
		assert.True(t, g.Field("a").Valid())
		assert.Equal(t, 1, *calls)
		assert.True(t, flags.Has(controls.FlagValid))
		assert.Empty(t, g.Error())

		g.Field("b").SetValue("z")
		assert.True(t, g.Valid())
		assert.Equal(t, 2, *calls)
	})

	t.Run("group error makes it invalid on its own", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 1})
		g.SetError("bad record")
		assert.False(t, g.Valid())
		assert.True(t, g.Field("a").Valid())

		g.SetError("")
		assert.True(t, g.Valid())
	})

	t.Run("group validator sees the whole record", func(t *testing.T) {
		match := func(v any) string {
			r, _ := v.(map[string]any)
			if r["password"] != r["confirm"] {
				return "passwords differ"
			}
			return ""
		}
		g := controls.New(map[string]any{"password": "a", "confirm": "a"}, controls.WithValidator(match))
		assert.True(t, g.Valid())

		g.Field("confirm").SetValue("b")
		assert.Equal(t, "passwords differ", g.Error())
		assert.False(t, g.Valid())

		g.Field("password").SetValue("b")
		assert.Empty(t, g.Error())
		assert.True(t, g.Valid())
	})

	t.Run("round trip is idempotent", func(t *testing.T) {
		record := map[string]any{
			"name":    "Ann",
			"address": map[string]any{"street": "Main", "zip": "1234"},
			"tags":    []any{"a", "b"},
		}
		g := controls.New(record)
		g.SetValue(map[string]any{
			"name":    "Bea",
			"address": map[string]any{"street": "High", "zip": "1234"},
			"tags":    []any{"c"},
		})
		before := g.StateVersion()
		_, flags := recordFlags(g, controls.FlagAll)

		snapshot := g.ToObject()
		g.SetValue(snapshot)
		assert.Equal(t, snapshot, g.ToObject())
		assert.Equal(t, before, g.StateVersion())
		assert.Equal(t, controls.FlagNone, *flags)
	})

	t.Run("set value treats missing keys as nil", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 1, "b": 2})
		g.SetValue(map[string]any{"a": 3, "c": 4})
		assert.Equal(t, map[string]any{"a": 3, "b": nil}, g.Value())
		assert.Nil(t, g.Field("c"))
	})

	t.Run("set value is a single notification", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 1, "b": 2})
		calls, flags := recordFlags(g, controls.FlagAll)

		g.SetValue(map[string]any{"a": 10, "b": 20})
		assert.Equal(t, 1, *calls)
		assert.Equal(t, controls.FlagValue|controls.FlagDirty, *flags)
		assert.Equal(t, uint64(1), g.StateVersion())
	})

	t.Run("readers never see a half applied assignment", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 0, "b": 0})
		var sums []int
		comp := controls.Compute(func() {
			sums = append(sums, controls.Typed[int](g.Field("a"))+controls.Typed[int](g.Field("b")))
		})
		defer comp.Stop()

		var siblings []any
		g.Field("a").AddChangeListener(func(*controls.Control, controls.ChangeFlags) {
			siblings = append(siblings, g.Field("b").Value())
		}, controls.FlagValue)

		g.SetValue(map[string]any{"a": 1, "b": 2})
		assert.Equal(t, []int{0, 3}, sums)
		assert.Equal(t, 2, comp.Runs())
		assert.Equal(t, []any{2}, siblings)
	})

	t.Run("declared children start disabled with their group", func(t *testing.T) {
		g := controls.New(map[string]any{"inner": map[string]any{"a": 1}}, controls.WithDisabled(true))
		assert.True(t, g.Field("inner").Disabled())
		assert.True(t, g.Field("inner").Field("a").Disabled())

		g.AddFields(controls.Fields{"b": controls.Def()})
		assert.True(t, g.Field("b").Disabled())
	})

	t.Run("touched bubbles up", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 1, "b": 2})
		g.Field("a").SetTouched(true)
		assert.True(t, g.Touched())
		assert.False(t, g.Field("b").Touched())

		g.Field("a").SetTouched(false)
		assert.True(t, g.Touched())
	})

	t.Run("starts touched when a child does", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 1}, controls.WithFields(controls.Fields{
			"a": controls.Def(controls.WithTouched(true)),
		}))
		assert.True(t, g.Touched())
	})

	t.Run("disabled cascades down but not up", func(t *testing.T) {
		g := controls.New(map[string]any{"inner": map[string]any{"a": 1}})
		g.Field("inner").Field("a").SetDisabled(true)
		assert.False(t, g.Disabled())
		assert.False(t, g.Field("inner").Disabled())

		g.SetDisabled(true)
		assert.True(t, g.Field("inner").Disabled())
		assert.True(t, g.Field("inner").Field("a").Disabled())
	})

	t.Run("add fields", func(t *testing.T) {
		g := controls.New(map[string]any{"a": 1})
		_, flags := recordFlags(g, controls.FlagAll)

		g.AddFields(controls.Fields{
			"a": controls.Def(),
			"b": controls.Def(controls.WithValidator(required)),
		})
		assert.Equal(t, []string{"a", "b"}, g.FieldNames())
		assert.Equal(t, 1, g.Field("a").Value())
		assert.Nil(t, g.Field("b").Value())
		assert.False(t, g.Valid())
		assert.Equal(t, controls.FlagValue|controls.FlagStructure|controls.FlagValid, *flags)
	})

	t.Run("mark as clean is deep", func(t *testing.T) {
		g := controls.New(map[string]any{"inner": map[string]any{"a": 1}, "list": []any{1}})
		g.Field("inner").Field("a").SetValue(2)
		g.Field("list").Add(2)
		require.True(t, g.Dirty())

		g.MarkAsClean()
		assert.False(t, g.Dirty())
		assert.False(t, g.Field("inner").Dirty())
		assert.False(t, g.Field("list").Dirty())
		assert.Equal(t, map[string]any{"a": 2}, g.Field("inner").InitialValue())
	})
}

func TestLookup(t *testing.T) {
	root := controls.New(map[string]any{
		"people": []any{
			map[string]any{"name": "Ann"},
			map[string]any{"name": "Bea"},
		},
		"title": "x",
	})

	found, err := root.Lookup("people", 1, "name")
	require.NoError(t, err)
	assert.Equal(t, "Bea", found.Value())
	assert.Equal(t, []any{"people", 1, "name"}, found.Path())
	assert.Equal(t, "$.people[1].name", controls.PathString(found.Path()))

	self, err := root.Lookup()
	require.NoError(t, err)
	assert.Same(t, root, self)
	assert.Empty(t, root.Path())
	assert.Equal(t, "$", controls.PathString(root.Path()))

	tests := []struct {
		name string
		path []any
		want error
	}{
		{"missing field", []any{"nope"}, controls.ErrNotFound},
		{"index on group", []any{0}, controls.ErrNotFound},
		{"field on array", []any{"people", "name"}, controls.ErrNotFound},
		{"field on leaf", []any{"title", "x"}, controls.ErrNotFound},
		{"index out of range", []any{"people", 2}, controls.ErrNotFound},
		{"negative index", []any{"people", -1}, controls.ErrNotFound},
		{"bad segment", []any{"people", 1.5}, controls.ErrBadSegment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Lookup(tt.path...)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
			assert.Nil(t, root.LookupControl(tt.path...))
		})
	}
}

func TestRecursiveDefinition(t *testing.T) {
	var node controls.Definition
	node = controls.Lazy(func() controls.Definition {
		return controls.Def(controls.WithFields(controls.Fields{
			"label":    controls.Def(),
			"children": controls.Def(controls.WithElems(node)),
		}))
	})

	tree := controls.NewFrom(node, map[string]any{
		"label": "root",
		"children": []any{
			map[string]any{"label": "leaf", "children": []any{}},
		},
	})
	leaf := tree.LookupControl("children", 0, "label")
	require.NotNil(t, leaf)
	assert.Equal(t, "leaf", leaf.Value())

	added := tree.Field("children").Add(nil)
	assert.Equal(t, controls.KindGroup, added.Kind())
	assert.Equal(t, 0, added.Field("children").Len())
}
