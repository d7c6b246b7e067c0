package controls

import "strings"

// ChangeFlags is a bitset describing which aspects of a Control changed in a
// single update. It is also used as the interest mask of a listener.
type ChangeFlags uint16

const (
	FlagValid ChangeFlags = 1 << iota
	FlagTouched
	FlagDirty
	FlagDisabled
	FlagValue
	FlagError
	// FlagValidate asks validators to re-run. It never describes stored state.
	FlagValidate
	// FlagStructure is raised when children are added or removed.
	FlagStructure

	FlagNone ChangeFlags = 0
	FlagAll              = FlagValid | FlagTouched | FlagDirty | FlagDisabled | FlagValue | FlagError | FlagStructure
)

var flagNames = []struct {
	flag ChangeFlags
	name string
}{
	{FlagValid, "Valid"},
	{FlagTouched, "Touched"},
	{FlagDirty, "Dirty"},
	{FlagDisabled, "Disabled"},
	{FlagValue, "Value"},
	{FlagError, "Error"},
	{FlagValidate, "Validate"},
	{FlagStructure, "Structure"},
}

// Has reports whether any bit of other is set in f.
func (f ChangeFlags) Has(other ChangeFlags) bool {
	return f&other != 0
}

func (f ChangeFlags) String() string {
	if f == FlagNone {
		return "None"
	}
	var sb strings.Builder
	for _, fn := range flagNames {
		if f&fn.flag == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(fn.name)
	}
	return sb.String()
}
