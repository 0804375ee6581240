package model

import (
	"fmt"
	"strings"
)

// ResolutionError reports that no candidate command for a role could be
// spawned at all. A spawned process exiting non-zero is not a resolution
// failure.
type ResolutionError struct {
	Role      Role
	Attempted []string // program names, in the order they were tried
	Err       error    // last spawn error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no launch command for %s: tried %s: %v",
		e.Role, strings.Join(e.Attempted, ", "), e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
