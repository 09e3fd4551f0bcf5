package enumerate

import (
	"errors"
	"fmt"
)

// Sentinel errors for enumeration.
var (
	ErrNoChannel       = errors.New("enumerate: no channel analyzed")
	ErrQuotaExhausted  = errors.New("enumerate: quota exhausted on every credential")
	ErrRunInProgress   = errors.New("enumerate: an enumeration is already running")
	ErrUnknownStrategy = errors.New("enumerate: unknown strategy")
)

// WalkError reports a walk that ended on a non-quota remote failure.
type WalkError struct {
	Walker string // "listing" or a search facet label
	Page   int    // page number that failed, 1-based
	Err    error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("enumerate: %s page %d: %v", e.Walker, e.Page, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }
