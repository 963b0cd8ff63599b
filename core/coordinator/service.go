package coordinator

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gridhub/aggcoord/core/logger"
	"github.com/gridhub/aggcoord/core/model"
	"github.com/gridhub/aggcoord/internal/eventbus"
)

// JobStateEvent is published on the event bus after every persisted job
// transition.
type JobStateEvent struct {
	JobID       string
	ProcessType model.ProcessType
	State       JobState
	Description string
	Time        time.Time
}

// Service drives one aggregation run against the external compute engine:
// cluster startup, job submission, run completion, and the result handoff to
// row ingestion. Each call supervises a single job; calls for different jobs
// may run concurrently.
type Service struct {
	cfg     Config
	compute ComputeClient
	meta    MetadataStore
	blobs   BlobStore
	input   InputProcessor
	bus     eventbus.EventBus
	log     logger.Logger

	clusterPoll    time.Duration
	runPoll        time.Duration
	clusterTimeout time.Duration
}

// NewService creates a coordinator Service. The bus is optional and may be nil.
func NewService(cfg Config, compute ComputeClient, meta MetadataStore, blobs BlobStore, input InputProcessor, bus eventbus.EventBus, log logger.Logger) *Service {
	cfg.SetDefaults()
	return &Service{
		cfg:            cfg,
		compute:        compute,
		meta:           meta,
		blobs:          blobs,
		input:          input,
		bus:            bus,
		log:            log,
		clusterPoll:    cfg.ClusterPollInterval(),
		runPoll:        cfg.RunPollInterval(),
		clusterTimeout: cfg.ClusterTimeout(),
	}
}

// StartAggregationJob creates a job record, brings the configured cluster to
// the running state, submits the aggregation job and waits for run completion.
// The returned id identifies the job record. Errors are logged with full
// context and returned without retry; cancellation propagates without marking
// the job failed.
func (s *Service) StartAggregationJob(ctx context.Context, processType model.ProcessType, beginTime, endTime time.Time, persist bool) (string, error) {
	job := NewJob(processType)
	if err := s.meta.CreateJob(ctx, job); err != nil {
		s.log.Errorf("create job record: %v", err)
		return "", fmt.Errorf("create job record: %w", err)
	}
	s.publish(job)

	started := time.Now()
	jobID, err := s.runJob(ctx, job, processType, beginTime, endTime, persist)
	if err != nil {
		s.log.Errorf("aggregation job %s (%s) failed in state %s after %s: %v",
			job.ID, processType, job.State, time.Since(started).Round(time.Millisecond), err)
		return "", err
	}
	return jobID, nil
}

func (s *Service) runJob(ctx context.Context, job *Job, processType model.ProcessType, beginTime, endTime time.Time, persist bool) (string, error) {
	cluster, err := s.findCluster(ctx)
	if err != nil {
		s.fail(ctx, job, ClusterFailed, err.Error())
		return "", err
	}
	job.ClusterID = cluster.ID

	if err := s.transition(ctx, job, ClusterStartup, "Checking cluster"); err != nil {
		return "", err
	}

	if cluster.State == ClusterStateTerminated {
		if err := s.compute.StartCluster(ctx, cluster.ID); err != nil {
			werr := &EngineError{Phase: "cluster start", Err: err}
			s.fail(ctx, job, ClusterFailed, werr.Error())
			return "", werr
		}
	}

	cluster, err = s.awaitCluster(ctx, job, cluster)
	if err != nil {
		return "", err
	}

	if err := s.transition(ctx, job, ClusterCreated, fmt.Sprintf("Cluster %s is running", cluster.ID)); err != nil {
		return "", err
	}

	def := JobDefinition{
		Name:       s.cfg.JobName,
		ClusterID:  cluster.ID,
		EntryPoint: s.cfg.EntryPoint,
		Parameters: s.jobParameters(job.ID, processType, beginTime, endTime, persist),
	}
	engineJobID, err := s.compute.SubmitJob(ctx, def)
	if err != nil {
		werr := &EngineError{Phase: "job submit", Err: err}
		s.fail(ctx, job, CompletedWithFail, werr.Error())
		return "", werr
	}
	job.EngineJobID = engineJobID
	if err := s.update(ctx, job); err != nil {
		return "", err
	}

	runID, err := s.compute.RunNow(ctx, engineJobID)
	if err != nil {
		werr := &EngineError{Phase: "run now", Err: err}
		s.fail(ctx, job, CompletedWithFail, werr.Error())
		return "", werr
	}
	job.RunID = runID
	s.log.Infof("waiting for run %d of job %s", runID, job.ID)

	if err := s.transition(ctx, job, Calculating, "Waiting for calculation job to complete"); err != nil {
		return "", err
	}

	if err := s.awaitRun(ctx, job, runID); err != nil {
		return "", err
	}

	if err := s.transition(ctx, job, Completed, "Calculation completed"); err != nil {
		return "", err
	}
	return job.ID, nil
}

// findCluster selects the configured cluster from the engine's roster.
func (s *Service) findCluster(ctx context.Context) (ClusterInfo, error) {
	clusters, err := s.compute.ListClusters(ctx)
	if err != nil {
		return ClusterInfo{}, &EngineError{Phase: "cluster list", Err: err}
	}
	for _, c := range clusters {
		if c.Name == s.cfg.ClusterName {
			return c, nil
		}
	}
	return ClusterInfo{}, fmt.Errorf("cluster %q not found on compute engine", s.cfg.ClusterName)
}

// awaitCluster polls the cluster until it is running, persisting the observed
// state between checks. Exceeding the configured budget marks the job
// ClusterFailed and fails the run.
func (s *Service) awaitCluster(ctx context.Context, job *Job, cluster ClusterInfo) (ClusterInfo, error) {
	deadline := time.Now().Add(s.clusterTimeout)
	for cluster.State != ClusterStateRunning {
		desc := fmt.Sprintf("Waiting for cluster %s state is %s", cluster.ID, cluster.State)
		s.log.Infof("%s", desc)
		if job.State != ClusterWarmingUp {
			if err := s.transition(ctx, job, ClusterWarmingUp, desc); err != nil {
				return cluster, err
			}
		} else {
			job.Describe(desc)
			if err := s.update(ctx, job); err != nil {
				return cluster, err
			}
		}

		if time.Now().After(deadline) {
			terr := &ClusterStartTimeoutError{ClusterID: cluster.ID, Waited: s.clusterTimeout}
			s.fail(ctx, job, ClusterFailed, terr.Error())
			return cluster, terr
		}

		select {
		case <-ctx.Done():
			return cluster, ctx.Err()
		case <-time.After(s.clusterPoll):
		}

		var err error
		cluster, err = s.compute.GetCluster(ctx, cluster.ID)
		if err != nil {
			werr := &EngineError{Phase: "cluster get", Err: err}
			s.fail(ctx, job, ClusterFailed, werr.Error())
			return cluster, werr
		}
	}
	return cluster, nil
}

// awaitRun polls the run until the engine reports completion. There is no
// timeout here: the engine enforces its own run budget, so completion is
// awaited until the context is canceled.
func (s *Service) awaitRun(ctx context.Context, job *Job, runID int64) error {
	for {
		run, err := s.compute.GetRun(ctx, runID)
		if err != nil {
			werr := &EngineError{Phase: "run get", Err: err}
			s.fail(ctx, job, CompletedWithFail, werr.Error())
			return werr
		}
		if run.Completed {
			if !run.Success {
				werr := &EngineError{Phase: "run", Err: fmt.Errorf("run %d failed: %s", runID, run.Message)}
				s.fail(ctx, job, CompletedWithFail, werr.Error())
				return werr
			}
			return nil
		}

		job.Describe("Waiting for calculation job to complete")
		if err := s.update(ctx, job); err != nil {
			return err
		}
		s.log.Infof("waiting for run %d", runID)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.runPoll):
		}
	}
}

// jobParameters flattens the request into the --key=value strings consumed by
// the engine-side entry point.
func (s *Service) jobParameters(resultID string, processType model.ProcessType, beginTime, endTime time.Time, persist bool) []string {
	return []string{
		fmt.Sprintf("--input-storage-account-name=%s", s.cfg.InputStorageAccountName),
		fmt.Sprintf("--input-storage-container-name=%s", s.cfg.InputStorageContainer),
		fmt.Sprintf("--input-path=%s", s.cfg.InputPath),
		fmt.Sprintf("--grid-loss-sys-cor-path=%s", s.cfg.GridLossSysCorPath),
		fmt.Sprintf("--beginning-date-time=%s", beginTime.UTC().Format(time.RFC3339)),
		fmt.Sprintf("--end-date-time=%s", endTime.UTC().Format(time.RFC3339)),
		fmt.Sprintf("--process-type=%s", processType.String()),
		fmt.Sprintf("--result-url=%s", s.cfg.ResultURL),
		fmt.Sprintf("--snapshot-url=%s", s.cfg.SnapshotURL),
		fmt.Sprintf("--result-id=%s", resultID),
		fmt.Sprintf("--persist-source-dataframe=%t", persist),
		fmt.Sprintf("--persist-source-dataframe-location=%s", s.cfg.PersistLocation),
	}
}

// HandleResult validates the request, records a JobResult, opens the raw
// output stream and forwards it to row ingestion.
func (s *Service) HandleResult(ctx context.Context, inputPath, resultID, processType string, startTime, endTime time.Time) error {
	if inputPath == "" {
		return fmt.Errorf("%w: inputPath", ErrMissingArgument)
	}
	if resultID == "" {
		return fmt.Errorf("%w: resultId", ErrMissingArgument)
	}
	if processType == "" {
		return fmt.Errorf("%w: processType", ErrMissingArgument)
	}
	if startTime.IsZero() || endTime.IsZero() {
		return fmt.Errorf("%w: time interval", ErrMissingArgument)
	}

	s.log.Infof("handling result %s for job %s (%s)", inputPath, resultID, processType)

	err := s.handleResult(ctx, inputPath, resultID, processType, startTime, endTime)
	if err != nil {
		s.log.Errorf("result handling failed for %s %s %s %s..%s: %v",
			inputPath, resultID, processType,
			startTime.Format(time.RFC3339), endTime.Format(time.RFC3339), err)
		return err
	}

	s.log.Infof("result handled %s for job %s", inputPath, resultID)
	return nil
}

func (s *Service) handleResult(ctx context.Context, inputPath, resultID, processType string, startTime, endTime time.Time) error {
	resultName, err := ParseResultName(inputPath)
	if err != nil {
		return err
	}

	result := NewJobResult(resultID, inputPath)
	if err := s.meta.CreateJobResult(ctx, result); err != nil {
		return fmt.Errorf("create result record: %w", err)
	}

	stream, err := s.blobs.GetReadStream(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("open result stream: %w", err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			s.log.Warnf("close result stream: %v", cerr)
		}
	}()

	result.State = "Stream captured"
	result.UpdatedAt = time.Now().UTC()
	if err := s.meta.UpdateJobResult(ctx, result); err != nil {
		return fmt.Errorf("update result record: %w", err)
	}

	pt, err := model.ParseProcessType(processType)
	if err != nil {
		return err
	}

	return s.input.ProcessInput(ctx, resultName, stream, pt, startTime, endTime, result)
}

// ParseResultName extracts the result-name segment from a raw output path.
// Paths look like .../<result_name>/<file>; a path with a trailing slash
// names the result directory itself. A bare file name is rejected.
func ParseResultName(inputPath string) (string, error) {
	cleaned := strings.TrimSuffix(inputPath, "/")
	name := path.Base(path.Dir(cleaned))
	if strings.HasSuffix(inputPath, "/") {
		name = path.Base(cleaned)
	}
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive result name from path %q", inputPath)
	}
	return name, nil
}

// transition applies a state change and persists it before the next poll.
func (s *Service) transition(ctx context.Context, job *Job, to JobState, description string) error {
	if err := job.Transition(to, description); err != nil {
		return err
	}
	if err := s.update(ctx, job); err != nil {
		return err
	}
	s.publish(job)
	return nil
}

// fail moves the job to a terminal failure state on a best-effort basis. The
// original error is what surfaces to the caller.
func (s *Service) fail(ctx context.Context, job *Job, to JobState, reason string) {
	if err := job.Transition(to, reason); err != nil {
		s.log.Warnf("job %s: %v", job.ID, err)
		return
	}
	if err := s.meta.UpdateJob(ctx, job); err != nil {
		s.log.Errorf("persist job %s failure state: %v", job.ID, err)
	}
	s.publish(job)
}

func (s *Service) update(ctx context.Context, job *Job) error {
	if err := s.meta.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Service) publish(job *Job) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(JobStateEvent{
		JobID:       job.ID,
		ProcessType: job.ProcessType,
		State:       job.State,
		Description: job.StateDescription,
		Time:        time.Now().UTC(),
	})
}
