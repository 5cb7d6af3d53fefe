package cards

import "fmt"

// InvalidInputError reports a user-supplied or tool-supplied value that
// fails validation.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
