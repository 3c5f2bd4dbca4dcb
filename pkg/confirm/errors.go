package confirm

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut matches any *TimedOutError via errors.Is.
var ErrTimedOut = errors.New("confirm: timed out")

// ErrInvalidSpec is returned for a Spec that cannot be run.
var ErrInvalidSpec = errors.New("confirm: invalid spec")

// TimedOutError reports a loop that used its whole tick budget without the
// goal being reached.
type TimedOutError struct {
	Goal    string
	Ticks   int
	Timeout time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("timed out after %v (%d ticks) waiting for %s", e.Timeout, e.Ticks, e.Goal)
}

// Is makes errors.Is(err, ErrTimedOut) true.
func (e *TimedOutError) Is(target error) bool {
	return target == ErrTimedOut
}
