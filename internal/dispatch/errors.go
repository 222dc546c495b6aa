package dispatch

import (
	"errors"
	"fmt"

	"github.com/runger/selact/internal/provider"
)

var (
	// ErrNoSelection is returned when a search or copy provider is dispatched
	// without selected text.
	ErrNoSelection = errors.New("no text selected")

	// ErrMissingActivation is returned when Dispatch is called without an activation ID.
	ErrMissingActivation = errors.New("activation id is required")

	// ErrInvalidURL is returned when the substituted search link cannot be opened.
	ErrInvalidURL = errors.New("search link is not a valid URL")
)

// ActionError reports a side effect the host environment rejected, such as a
// blocked new tab or a denied clipboard write. It is transient: nothing is
// retried and nothing is persisted; callers show Notice once.
type ActionError struct {
	Kind provider.Kind
	Op   string // "open" or "copy"
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Op, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Notice is the one-line message shown to the user.
func (e *ActionError) Notice() string {
	switch e.Op {
	case "copy":
		return "Could not copy to clipboard"
	case "open":
		return "Could not open a new tab"
	default:
		return "Action failed"
	}
}
