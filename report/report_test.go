package report

import (
	"strconv"
	"testing"

	"github.com/delaneyj/formsignals/controls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	form := controls.New(map[string]any{
		"name": "Ann",
		"tags": []any{"a"},
	}, controls.WithFields(controls.Fields{
		"age": controls.Def(controls.WithTag("required")),
	}))
	form.Field("name").SetValue("Bea")
	form.Field("tags").Add("b")

	rows := Rows(form)
	require.Len(t, rows, 6)

	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{"$", "age", "name", "tags", "[0]", "[1]"}, labels)

	assert.Equal(t, "invalid dirty touched", rows[0].State)
	assert.Equal(t, "null", rows[1].Value)
	assert.Equal(t, "failed on 'required'", rows[1].Error)
	assert.Equal(t, `"Bea"`, rows[2].Value)
	assert.Equal(t, "dirty", rows[2].State)
	assert.Equal(t, 2, rows[5].Depth)
	assert.Empty(t, rows[3].Value)
}

func TestDump(t *testing.T) {
	form := controls.New(map[string]any{"n": 1})
	out := Dump(form)
	assert.Equal(t,
		"$ group #"+strconv.FormatUint(form.ID(), 10)+"\n"+
			"  n leaf #"+strconv.FormatUint(form.Field("n").ID(), 10)+" = 1\n",
		out)
}

func TestRowsDoNotSubscribe(t *testing.T) {
	form := controls.New(map[string]any{"n": 1})
	tr := controls.NewTracker(func() {})
	tr.Run(func() { _ = Rows(form) })
	assert.Empty(t, tr.Subscriptions())
}
