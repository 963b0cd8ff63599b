package metadata

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridhub/aggcoord/core/coordinator"
)

// MemoryStore keeps records in memory. Used by the local result command and
// in tests where a database is not available.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[string]coordinator.Job
	results map[string]coordinator.JobResult
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    map[string]coordinator.Job{},
		results: map[string]coordinator.JobResult{},
	}
}

func (m *MemoryStore) CreateJob(_ context.Context, job *coordinator.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *MemoryStore) UpdateJob(_ context.Context, job *coordinator.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: no such record", job.ID)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *MemoryStore) CreateJobResult(_ context.Context, result *coordinator.JobResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[result.ID]; ok {
		return fmt.Errorf("job result %s already exists", result.ID)
	}
	m.results[result.ID] = *result
	return nil
}

func (m *MemoryStore) UpdateJobResult(_ context.Context, result *coordinator.JobResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[result.ID]; !ok {
		return fmt.Errorf("job result %s: no such record", result.ID)
	}
	m.results[result.ID] = *result
	return nil
}

// Job returns a copy of the stored job record.
func (m *MemoryStore) Job(id string) (coordinator.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok
}
