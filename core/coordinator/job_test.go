package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhub/aggcoord/core/model"
)

func TestJobStateForwardProgression(t *testing.T) {
	order := []JobState{Created, ClusterStartup, ClusterWarmingUp, ClusterCreated, Calculating, Completed}

	job := NewJob(model.BalanceFixing)
	require.Equal(t, Created, job.State)

	for _, next := range order[1:] {
		require.NoError(t, job.Transition(next, next.String()))
		assert.Equal(t, next, job.State)
		assert.Equal(t, next.String(), job.StateDescription)
	}
}

func TestJobStateNoBacktracking(t *testing.T) {
	job := NewJob(model.Aggregation)
	require.NoError(t, job.Transition(Calculating, "skipped ahead"))

	err := job.Transition(ClusterStartup, "back")
	require.Error(t, err)
	assert.Equal(t, Calculating, job.State, "failed transition must not mutate the job")
	assert.Equal(t, "skipped ahead", job.StateDescription)
}

func TestJobStateFailureReachableFromAnywhere(t *testing.T) {
	for _, from := range []JobState{Created, ClusterStartup, ClusterWarmingUp, ClusterCreated, Calculating} {
		assert.True(t, from.CanTransition(ClusterFailed), "%s -> ClusterFailed", from)
		assert.True(t, from.CanTransition(CompletedWithFail), "%s -> CompletedWithFail", from)
	}
}

func TestJobStateTerminalIsFinal(t *testing.T) {
	for _, terminal := range []JobState{Completed, CompletedWithFail, ClusterFailed} {
		assert.True(t, terminal.Terminal())
		for to := Created; to <= ClusterFailed; to++ {
			assert.False(t, terminal.CanTransition(to), "%s -> %s", terminal, to)
		}
	}
}

func TestJobDescribeKeepsState(t *testing.T) {
	job := NewJob(model.WholesaleFixing)
	require.NoError(t, job.Transition(ClusterWarmingUp, "Waiting for cluster c-1 state is PENDING"))

	job.Describe("Waiting for cluster c-1 state is RESIZING")
	assert.Equal(t, ClusterWarmingUp, job.State)
	assert.Equal(t, "Waiting for cluster c-1 state is RESIZING", job.StateDescription)
}

func TestNewJobResult(t *testing.T) {
	res := NewJobResult("job-1", "results/hourly_consumption/part-0001.json")
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, "Created", res.State)
}
