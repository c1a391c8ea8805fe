package interaction

import (
	"errors"

	"github.com/smallnest/archviz/client"
)

var (
	// ErrEmptySystemName is returned by Build for a blank system name.
	ErrEmptySystemName = errors.New("please enter a system name")

	// ErrNotExpandable is returned when a double-click cannot start an expansion:
	// the node is unknown or not expandable, or no system is loaded.
	ErrNotExpandable = errors.New("node is not expandable")

	// ErrExpandPending is returned while an expansion of the same node is in flight.
	ErrExpandPending = errors.New("expansion already in progress")

	// ErrLowPriority is returned when re-expanding an already expanded node while
	// another expansion is in flight.
	ErrLowPriority = errors.New("node already expanded, skipped while another expansion is in flight")

	// ErrStaleResult is returned when a response arrives after the graph it was
	// requested for has been replaced. The result is discarded.
	ErrStaleResult = errors.New("stale result discarded")
)

// errorMessage converts a service error into the text shown to the user.
func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
