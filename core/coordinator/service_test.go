package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/gridhub/aggcoord/infra/logger"

	"github.com/gridhub/aggcoord/core/model"
)

type fakeCompute struct {
	listClusters func(ctx context.Context) ([]ClusterInfo, error)
	startCluster func(ctx context.Context, clusterID string) error
	getCluster   func(ctx context.Context, clusterID string) (ClusterInfo, error)
	submitJob    func(ctx context.Context, def JobDefinition) (int64, error)
	runNow       func(ctx context.Context, jobID int64) (int64, error)
	getRun       func(ctx context.Context, runID int64) (RunStatus, error)

	mu          sync.Mutex
	startCalls  int
	submitCalls int
}

func (f *fakeCompute) ListClusters(ctx context.Context) ([]ClusterInfo, error) {
	return f.listClusters(ctx)
}

func (f *fakeCompute) StartCluster(ctx context.Context, clusterID string) error {
	f.mu.Lock()
	f.startCalls++
	f.mu.Unlock()
	if f.startCluster == nil {
		return nil
	}
	return f.startCluster(ctx, clusterID)
}

func (f *fakeCompute) GetCluster(ctx context.Context, clusterID string) (ClusterInfo, error) {
	return f.getCluster(ctx, clusterID)
}

func (f *fakeCompute) SubmitJob(ctx context.Context, def JobDefinition) (int64, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	if f.submitJob == nil {
		return 1, nil
	}
	return f.submitJob(ctx, def)
}

func (f *fakeCompute) RunNow(ctx context.Context, jobID int64) (int64, error) {
	if f.runNow == nil {
		return 100, nil
	}
	return f.runNow(ctx, jobID)
}

func (f *fakeCompute) GetRun(ctx context.Context, runID int64) (RunStatus, error) {
	return f.getRun(ctx, runID)
}

// recordingStore keeps the last job and every persisted state in write order.
type recordingStore struct {
	mu      sync.Mutex
	job     Job
	states  []JobState
	results map[string]JobResult
}

func newRecordingStore() *recordingStore {
	return &recordingStore{results: make(map[string]JobResult)}
}

func (s *recordingStore) CreateJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = *job
	s.states = append(s.states, job.State)
	return nil
}

func (s *recordingStore) UpdateJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = *job
	s.states = append(s.states, job.State)
	return nil
}

func (s *recordingStore) CreateJobResult(_ context.Context, result *JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = *result
	return nil
}

func (s *recordingStore) UpdateJobResult(_ context.Context, result *JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = *result
	return nil
}

func (s *recordingStore) lastJob() Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

func (s *recordingStore) stateHistory() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, len(s.states))
	copy(out, s.states)
	return out
}

type fakeBlobs struct {
	content string
	err     error
}

func (f *fakeBlobs) GetReadStream(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type capturingProcessor struct {
	resultName  string
	processType model.ProcessType
	payload     string
	err         error
}

func (p *capturingProcessor) ProcessInput(_ context.Context, resultName string, r io.Reader, pt model.ProcessType, _, _ time.Time, _ *JobResult) error {
	p.resultName = resultName
	p.processType = pt
	b, _ := io.ReadAll(r)
	p.payload = string(b)
	return p.err
}

func testConfig() Config {
	return Config{
		ClusterName: "aggregation-cluster",
		JobName:     "aggregation-job",
		EntryPoint:  "aggregation_trigger.py",
	}
}

func newTestService(compute ComputeClient, meta MetadataStore, blobs BlobStore, input InputProcessor) *Service {
	svc := NewService(testConfig(), compute, meta, blobs, input, nil, infralogger.NopLogger{})
	svc.clusterPoll = time.Millisecond
	svc.runPoll = time.Millisecond
	svc.clusterTimeout = time.Second
	return svc
}

func TestStartAggregationJobRunningCluster(t *testing.T) {
	meta := newRecordingStore()
	compute := &fakeCompute{
		listClusters: func(context.Context) ([]ClusterInfo, error) {
			return []ClusterInfo{
				{ID: "c-0", Name: "other", State: ClusterStateTerminated},
				{ID: "c-1", Name: "aggregation-cluster", State: ClusterStateRunning},
			}, nil
		},
		getRun: func(context.Context, int64) (RunStatus, error) {
			return RunStatus{Completed: true, Success: true}, nil
		},
	}
	svc := newTestService(compute, meta, nil, nil)

	begin := time.Date(2020, 10, 2, 23, 0, 0, 0, time.UTC)
	end := begin.Add(24 * time.Hour)
	jobID, err := svc.StartAggregationJob(context.Background(), model.BalanceFixing, begin, end, false)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	assert.Equal(t, 0, compute.startCalls, "running cluster must not be restarted")
	assert.Equal(t, Completed, meta.lastJob().State)
	assert.Equal(t, "Calculation completed", meta.lastJob().StateDescription)
	assert.Equal(t, []JobState{Created, ClusterStartup, ClusterCreated, ClusterCreated, Calculating, Completed}, meta.stateHistory())
}

func TestStartAggregationJobStartsTerminatedCluster(t *testing.T) {
	meta := newRecordingStore()
	var polls int
	compute := &fakeCompute{
		listClusters: func(context.Context) ([]ClusterInfo, error) {
			return []ClusterInfo{{ID: "c-1", Name: "aggregation-cluster", State: ClusterStateTerminated}}, nil
		},
		getCluster: func(_ context.Context, id string) (ClusterInfo, error) {
			polls++
			state := "PENDING"
			if polls >= 2 {
				state = ClusterStateRunning
			}
			return ClusterInfo{ID: id, Name: "aggregation-cluster", State: state}, nil
		},
		getRun: func(context.Context, int64) (RunStatus, error) {
			return RunStatus{Completed: true, Success: true}, nil
		},
	}
	svc := newTestService(compute, meta, nil, nil)

	_, err := svc.StartAggregationJob(context.Background(), model.Aggregation, time.Now(), time.Now().Add(time.Hour), false)
	require.NoError(t, err)

	assert.Equal(t, 1, compute.startCalls)
	assert.Contains(t, meta.stateHistory(), ClusterWarmingUp)
	assert.Equal(t, Completed, meta.lastJob().State)
}

func TestStartAggregationJobClusterTimeout(t *testing.T) {
	meta := newRecordingStore()
	compute := &fakeCompute{
		listClusters: func(context.Context) ([]ClusterInfo, error) {
			return []ClusterInfo{{ID: "c-1", Name: "aggregation-cluster", State: ClusterStateTerminated}}, nil
		},
		getCluster: func(_ context.Context, id string) (ClusterInfo, error) {
			return ClusterInfo{ID: id, Name: "aggregation-cluster", State: "PENDING"}, nil
		},
	}
	svc := newTestService(compute, meta, nil, nil)
	svc.clusterTimeout = -time.Second

	_, err := svc.StartAggregationJob(context.Background(), model.BalanceFixing, time.Now(), time.Now().Add(time.Hour), false)
	require.Error(t, err)

	var terr *ClusterStartTimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "c-1", terr.ClusterID)
	assert.Equal(t, ClusterFailed, meta.lastJob().State)
	assert.Equal(t, 0, compute.submitCalls, "no job may be submitted after a cluster timeout")
}

func TestStartAggregationJobRunFailure(t *testing.T) {
	meta := newRecordingStore()
	compute := &fakeCompute{
		listClusters: func(context.Context) ([]ClusterInfo, error) {
			return []ClusterInfo{{ID: "c-1", Name: "aggregation-cluster", State: ClusterStateRunning}}, nil
		},
		getRun: func(context.Context, int64) (RunStatus, error) {
			return RunStatus{Completed: true, Success: false, Message: "python exception"}, nil
		},
	}
	svc := newTestService(compute, meta, nil, nil)

	_, err := svc.StartAggregationJob(context.Background(), model.WholesaleFixing, time.Now(), time.Now().Add(time.Hour), false)
	require.Error(t, err)

	var eerr *EngineError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "run", eerr.Phase)
	assert.Contains(t, err.Error(), "python exception")
	assert.Equal(t, CompletedWithFail, meta.lastJob().State)
}

func TestStartAggregationJobCancellationDoesNotFailJob(t *testing.T) {
	meta := newRecordingStore()
	ctx, cancel := context.WithCancel(context.Background())
	compute := &fakeCompute{
		listClusters: func(context.Context) ([]ClusterInfo, error) {
			return []ClusterInfo{{ID: "c-1", Name: "aggregation-cluster", State: ClusterStateRunning}}, nil
		},
		getRun: func(context.Context, int64) (RunStatus, error) {
			cancel()
			return RunStatus{Completed: false}, nil
		},
	}
	svc := newTestService(compute, meta, nil, nil)
	svc.runPoll = time.Minute

	_, err := svc.StartAggregationJob(ctx, model.BalanceFixing, time.Now(), time.Now().Add(time.Hour), false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Calculating, meta.lastJob().State, "cancellation must not mark the job failed")
}

func TestStartAggregationJobClusterNotFound(t *testing.T) {
	meta := newRecordingStore()
	compute := &fakeCompute{
		listClusters: func(context.Context) ([]ClusterInfo, error) {
			return []ClusterInfo{{ID: "c-9", Name: "unrelated", State: ClusterStateRunning}}, nil
		},
	}
	svc := newTestService(compute, meta, nil, nil)

	_, err := svc.StartAggregationJob(context.Background(), model.BalanceFixing, time.Now(), time.Now().Add(time.Hour), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregation-cluster")
	assert.Equal(t, ClusterFailed, meta.lastJob().State)
}

func TestJobParameters(t *testing.T) {
	cfg := testConfig()
	cfg.InputStorageAccountName = "acct"
	cfg.InputStorageContainer = "container"
	cfg.InputPath = "delta/meter-data/"
	cfg.GridLossSysCorPath = "delta/grid-loss/"
	cfg.ResultURL = "https://host/result"
	cfg.SnapshotURL = "https://host/snapshot"
	cfg.PersistLocation = "delta/basis-data/"
	svc := NewService(cfg, nil, nil, nil, nil, nil, infralogger.NopLogger{})

	begin := time.Date(2020, 10, 2, 23, 0, 0, 0, time.UTC)
	end := time.Date(2020, 10, 3, 23, 0, 0, 0, time.UTC)
	params := svc.jobParameters("id-1", model.BalanceFixing, begin, end, true)

	assert.Contains(t, params, "--process-type=BalanceFixing")
	assert.Contains(t, params, "--beginning-date-time=2020-10-02T23:00:00Z")
	assert.Contains(t, params, "--end-date-time=2020-10-03T23:00:00Z")
	assert.Contains(t, params, "--result-id=id-1")
	assert.Contains(t, params, "--persist-source-dataframe=true")
	assert.Contains(t, params, "--persist-source-dataframe-location=delta/basis-data/")
	assert.Len(t, params, 12)
}

func TestHandleResultValidation(t *testing.T) {
	svc := newTestService(nil, newRecordingStore(), nil, nil)
	now := time.Now()

	cases := []struct {
		name                             string
		inputPath, resultID, processType string
		start, end                       time.Time
	}{
		{"missing input path", "", "id", "D04", now, now},
		{"missing result id", "results/hourly_consumption/f.json", "", "D04", now, now},
		{"missing process type", "results/hourly_consumption/f.json", "id", "", now, now},
		{"zero start time", "results/hourly_consumption/f.json", "id", "D04", time.Time{}, now},
		{"zero end time", "results/hourly_consumption/f.json", "id", "D04", now, time.Time{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.HandleResult(context.Background(), tc.inputPath, tc.resultID, tc.processType, tc.start, tc.end)
			require.ErrorIs(t, err, ErrMissingArgument)
		})
	}
}

func TestHandleResult(t *testing.T) {
	meta := newRecordingStore()
	blobs := &fakeBlobs{content: `{"job_id":"j"}`}
	proc := &capturingProcessor{}
	svc := newTestService(nil, meta, blobs, proc)

	now := time.Now()
	err := svc.HandleResult(context.Background(), "results/flex_consumption/part-0001.json", "res-1", "D04", now, now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "flex_consumption", proc.resultName)
	assert.Equal(t, model.BalanceFixing, proc.processType)
	assert.Equal(t, `{"job_id":"j"}`, proc.payload)

	require.Len(t, meta.results, 1)
	for _, res := range meta.results {
		assert.Equal(t, "Stream captured", res.State)
		assert.Equal(t, "res-1", res.JobID)
	}
}

func TestHandleResultUnknownProcessType(t *testing.T) {
	svc := newTestService(nil, newRecordingStore(), &fakeBlobs{content: "{}"}, &capturingProcessor{})

	now := time.Now()
	err := svc.HandleResult(context.Background(), "results/flex_consumption/f.json", "res-1", "D99", now, now.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "D99")
}

func TestHandleResultStreamError(t *testing.T) {
	svc := newTestService(nil, newRecordingStore(), &fakeBlobs{err: errors.New("blob gone")}, &capturingProcessor{})

	now := time.Now()
	err := svc.HandleResult(context.Background(), "results/flex_consumption/f.json", "res-1", "D04", now, now.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blob gone")
}

func TestParseResultName(t *testing.T) {
	cases := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"results/hourly_consumption/part-0001.json", "hourly_consumption", false},
		{"https://acct.blob.host/container/results/exchange/f.json", "exchange", false},
		{"results/total_consumption/", "total_consumption", false},
		{"total_consumption/", "total_consumption", false},
		{"part-0001.json", "", true},
		{"", "", true},
		{"/", "", true},
	}
	for _, tc := range cases {
		got, err := ParseResultName(tc.path)
		if tc.wantErr {
			assert.Error(t, err, "path %q", tc.path)
			continue
		}
		require.NoError(t, err, "path %q", tc.path)
		assert.Equal(t, tc.want, got, "path %q", tc.path)
	}
}

func TestEngineErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &EngineError{Phase: "job submit", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, fmt.Sprintf("compute engine %s: %v", "job submit", inner), err.Error())
}
