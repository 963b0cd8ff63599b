package coordinator

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingArgument signals a null or empty request argument. Fails fast, no
// retry.
var ErrMissingArgument = errors.New("missing required argument")

// ClusterStartTimeoutError is returned when the compute cluster does not reach
// the running state within the configured budget. The job is marked
// ClusterFailed and the error is not retried.
type ClusterStartTimeoutError struct {
	ClusterID string
	Waited    time.Duration
}

func (e *ClusterStartTimeoutError) Error() string {
	return fmt.Sprintf("cluster %s did not start within %s", e.ClusterID, e.Waited)
}

// EngineError wraps a failed call to the external compute engine with the
// lifecycle phase it happened in.
type EngineError struct {
	Phase string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("compute engine %s: %v", e.Phase, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
