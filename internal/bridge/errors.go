package bridge

import "fmt"

// FieldNotFoundError indicates a login field could not be injected: either
// an explicitly mapped vault field resolved to no value, or auto-detection
// found no matching element on the page for a required field.
type FieldNotFoundError struct {
	Field string // logical field name ("username", "credit card number", ...)
	Ref   string // page element ref, when one was supplied
}

func (e *FieldNotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("no value for field %q (ref %s)", e.Field, e.Ref)
	}
	return fmt.Sprintf("no input element found for field %q", e.Field)
}

// SnapshotUnavailableError indicates the browser could not produce an
// accessibility snapshot of the current page. The caller may retry.
type SnapshotUnavailableError struct {
	Profile string
}

func (e *SnapshotUnavailableError) Error() string {
	return fmt.Sprintf("accessibility snapshot unavailable for profile %q", e.Profile)
}
