package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhub/aggcoord/core/coordinator"
	"github.com/gridhub/aggcoord/core/model"
)

func TestMemoryStoreJobLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job := coordinator.NewJob(model.BalanceFixing)
	require.NoError(t, store.CreateJob(ctx, job))
	assert.Error(t, store.CreateJob(ctx, job), "duplicate create is rejected")

	require.NoError(t, job.Transition(coordinator.ClusterStartup, "Checking cluster"))
	require.NoError(t, store.UpdateJob(ctx, job))

	got, ok := store.Job(job.ID)
	require.True(t, ok)
	assert.Equal(t, coordinator.ClusterStartup, got.State)
	assert.Equal(t, "Checking cluster", got.StateDescription)
}

func TestMemoryStoreUpdateUnknownJob(t *testing.T) {
	store := NewMemoryStore()
	job := coordinator.NewJob(model.Aggregation)
	assert.Error(t, store.UpdateJob(context.Background(), job))
}

func TestMemoryStoreJobResults(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	res := coordinator.NewJobResult("job-1", "results/exchange/f.json")
	require.NoError(t, store.CreateJobResult(ctx, res))
	assert.Error(t, store.CreateJobResult(ctx, res))

	res.State = "Stream captured"
	require.NoError(t, store.UpdateJobResult(ctx, res))

	other := coordinator.NewJobResult("job-1", "elsewhere")
	assert.Error(t, store.UpdateJobResult(ctx, other))
}
