package render

import "fmt"

// MisuseOfReservedSlotError is raised by Builder when a caller names a key
// that either does not exist in the compiled Blueprint or is used with
// the wrong accessor for its bank (spec.md §7).
type MisuseOfReservedSlotError struct {
	Name   string
	Reason string
}

func (e *MisuseOfReservedSlotError) Error() string {
	return fmt.Sprintf("misuse of key %q: %s", e.Name, e.Reason)
}

// HandlerMissingValueError is raised at render time when an active
// handler-lettered placement has no value in the Builder (spec.md §7).
type HandlerMissingValueError struct {
	VarName string
	Letter  byte
}

func (e *HandlerMissingValueError) Error() string {
	return fmt.Sprintf("variable %q (handler %q) is active but carries no value", e.VarName, string(e.Letter))
}
