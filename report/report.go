// Package report renders a control tree as text for debugging and the dump
// command.
package report

//go:generate qtc -file=tree.qtpl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/delaneyj/formsignals/controls"
)

// Row is one control of a flattened tree.
type Row struct {
	Depth int
	Label string
	Kind  string
	ID    uint64
	Value string
	State string
	Error string
}

func (r Row) Indent() string {
	return strings.Repeat("  ", r.Depth)
}

// Rows flattens c depth first. Group fields appear in field order and array
// elements by index. Reading the tree this way never subscribes the ambient
// collector.
func Rows(c *controls.Control) (rows []Row) {
	controls.Untracked(func() {
		rows = appendRows(rows, c, "$", 0)
	})
	return rows
}

// Dump renders c with Tree.
func Dump(c *controls.Control) string {
	return Tree(Rows(c))
}

func appendRows(rows []Row, c *controls.Control, label string, depth int) []Row {
	s := c.Snapshot()
	row := Row{
		Depth: depth,
		Label: label,
		Kind:  c.Kind().String(),
		ID:    c.ID(),
		State: stateString(s),
		Error: s.Error,
	}
	if c.Kind() == controls.KindLeaf {
		row.Value = formatValue(s.Value)
	}
	rows = append(rows, row)

	switch c.Kind() {
	case controls.KindGroup:
		for _, name := range c.FieldNames() {
			rows = appendRows(rows, c.Field(name), name, depth+1)
		}
	case controls.KindArray:
		for i, e := range c.Elements() {
			rows = appendRows(rows, e, "["+strconv.Itoa(i)+"]", depth+1)
		}
	}
	return rows
}

func stateString(s controls.State) string {
	var parts []string
	if !s.Valid {
		parts = append(parts, "invalid")
	}
	if s.Dirty {
		parts = append(parts, "dirty")
	}
	if s.Touched {
		parts = append(parts, "touched")
	}
	if s.Disabled {
		parts = append(parts, "disabled")
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
