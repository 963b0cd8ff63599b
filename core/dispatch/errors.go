package dispatch

import "errors"

// ErrNilResults is returned when a strategy receives a nil row sequence.
var ErrNilResults = errors.New("result row sequence is nil")

// ErrUnknownResultName is returned when no strategy is registered for a
// result name.
var ErrUnknownResultName = errors.New("no strategy registered for result name")
