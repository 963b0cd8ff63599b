package market

import "fmt"

// UnknownPartyError signals a recipient or ownership lookup miss. It is fatal
// to the enclosing dispatch or build call: it indicates a data or
// configuration gap, not a transient condition.
type UnknownPartyError struct {
	Party string
}

func (e *UnknownPartyError) Error() string {
	return fmt.Sprintf("party %q is not registered", e.Party)
}
