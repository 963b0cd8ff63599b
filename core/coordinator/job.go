package coordinator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridhub/aggcoord/core/model"
)

// JobState is one step in the lifecycle of an aggregation run. States form a
// strict forward progression; the failure states are reachable from any
// non-terminal state.
type JobState int

const (
	Created JobState = iota
	ClusterStartup
	ClusterWarmingUp
	ClusterCreated
	Calculating
	Completed
	CompletedWithFail
	ClusterFailed
)

var stateNames = map[JobState]string{
	Created:           "Created",
	ClusterStartup:    "ClusterStartup",
	ClusterWarmingUp:  "ClusterWarmingUp",
	ClusterCreated:    "ClusterCreated",
	Calculating:       "Calculating",
	Completed:         "Completed",
	CompletedWithFail: "CompletedWithFail",
	ClusterFailed:     "ClusterFailed",
}

func (s JobState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// Terminal reports whether no further transition is allowed from s.
func (s JobState) Terminal() bool {
	return s == Completed || s == CompletedWithFail || s == ClusterFailed
}

// CanTransition reports whether a job in state s may move to state to.
// Forward-only ordering applies for the happy path; CompletedWithFail and
// ClusterFailed accept transitions from any non-terminal state.
func (s JobState) CanTransition(to JobState) bool {
	if s.Terminal() {
		return false
	}
	if to == CompletedWithFail || to == ClusterFailed {
		return true
	}
	return to > s && to <= Completed
}

// Job is the metadata record of one aggregation run. It is owned by the
// coordinator: mutated only through Transition and persisted after every
// change.
type Job struct {
	ID               string
	ProcessType      model.ProcessType
	State            JobState
	StateDescription string
	ClusterID        string
	EngineJobID      int64
	RunID            int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewJob creates a Job in the Created state.
func NewJob(processType model.ProcessType) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:               uuid.NewString(),
		ProcessType:      processType,
		State:            Created,
		StateDescription: "Created",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Transition moves the job to the given state with a human-readable
// description. Illegal transitions are rejected so a job can never re-enter
// an earlier lifecycle state.
func (j *Job) Transition(to JobState, description string) error {
	if !j.State.CanTransition(to) {
		return fmt.Errorf("illegal job transition %s -> %s", j.State, to)
	}
	j.State = to
	j.StateDescription = description
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Describe updates the state description without changing state. Used by the
// poll loops to surface progress between transitions.
func (j *Job) Describe(description string) {
	j.StateDescription = description
	j.UpdatedAt = time.Now().UTC()
}

// JobResult tracks the processing of one raw output file produced by a job.
type JobResult struct {
	ID        string
	JobID     string
	Path      string
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJobResult creates a JobResult for the raw output at path.
func NewJobResult(jobID, path string) *JobResult {
	now := time.Now().UTC()
	return &JobResult{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Path:      path,
		State:     "Created",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
