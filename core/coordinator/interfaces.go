package coordinator

import (
	"context"
	"io"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// Cluster states reported by the external compute engine.
const (
	ClusterStateRunning    = "RUNNING"
	ClusterStateTerminated = "TERMINATED"
)

// ClusterInfo describes one compute cluster known to the engine.
type ClusterInfo struct {
	ID    string
	Name  string
	State string
}

// JobDefinition is the job submitted to the external engine. Parameters are
// flattened --key=value strings consumed by the engine-side entry point.
type JobDefinition struct {
	Name       string
	ClusterID  string
	EntryPoint string
	Parameters []string
}

// RunStatus is the engine's view of one job run.
type RunStatus struct {
	Completed bool
	Success   bool
	Message   string
}

// ComputeClient talks to the external compute engine. Implemented by
// infra/databricks.
type ComputeClient interface {
	ListClusters(ctx context.Context) ([]ClusterInfo, error)
	StartCluster(ctx context.Context, clusterID string) error
	GetCluster(ctx context.Context, clusterID string) (ClusterInfo, error)
	SubmitJob(ctx context.Context, def JobDefinition) (int64, error)
	RunNow(ctx context.Context, jobID int64) (int64, error)
	GetRun(ctx context.Context, runID int64) (RunStatus, error)
}

// MetadataStore persists Job and JobResult records. Updates must be
// idempotent-safe against repeated identical writes.
type MetadataStore interface {
	CreateJob(ctx context.Context, job *Job) error
	UpdateJob(ctx context.Context, job *Job) error
	CreateJobResult(ctx context.Context, result *JobResult) error
	UpdateJobResult(ctx context.Context, result *JobResult) error
}

// BlobStore provides read access to raw result output.
type BlobStore interface {
	GetReadStream(ctx context.Context, path string) (io.ReadCloser, error)
}

// InputProcessor consumes the open result stream once HandleResult has
// validated the request. Row parsing is owned by the implementation.
type InputProcessor interface {
	ProcessInput(ctx context.Context, resultName string, r io.Reader, processType model.ProcessType, start, end time.Time, result *JobResult) error
}
