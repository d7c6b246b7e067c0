package controls

import (
	"fmt"
	"strings"

	"github.com/zoobzio/capitan"
)

// Async validation signals.
var (
	// AsyncValidationScheduled is emitted when a check is (re)scheduled.
	AsyncValidationScheduled = capitan.NewSignal(
		"controls.async.scheduled",
		"Async validation scheduled",
	)

	// AsyncValidationAborted is emitted when an in-flight check is cancelled
	// because a newer one superseded it.
	AsyncValidationAborted = capitan.NewSignal(
		"controls.async.aborted",
		"Async validation aborted",
	)

	// AsyncValidationApplied is emitted when a result is written to the control.
	AsyncValidationApplied = capitan.NewSignal(
		"controls.async.applied",
		"Async validation result applied",
	)

	// AsyncValidationStale is emitted when a result arrives for a version the
	// control no longer holds.
	AsyncValidationStale = capitan.NewSignal(
		"controls.async.stale",
		"Async validation result dropped",
	)

	// AsyncValidationFailed is emitted when a check fails with a non abort error.
	AsyncValidationFailed = capitan.NewSignal(
		"controls.async.failed",
		"Async validation failed",
	)
)

// Field keys for async validation events.
var (
	// KeyPath is the path of the control being validated.
	KeyPath = capitan.NewStringKey("path")

	// KeyErrorKey is the error key the validator writes to.
	KeyErrorKey = capitan.NewStringKey("error_key")

	// KeyMessage is the validation message produced by a check.
	KeyMessage = capitan.NewStringKey("message")

	// KeyError is the error returned by a failed check.
	KeyError = capitan.NewStringKey("error")

	// KeyDelay is the configured debounce delay.
	KeyDelay = capitan.NewDurationKey("delay")
)

// PathString renders a path as "$.field[2].name".
func PathString(path []any) string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, seg := range path {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(&sb, "[%d]", s)
		default:
			fmt.Fprintf(&sb, ".%v", s)
		}
	}
	return sb.String()
}
