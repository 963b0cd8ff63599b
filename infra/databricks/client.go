package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gridhub/aggcoord/core/coordinator"
	"github.com/gridhub/aggcoord/infra/logger"
)

// Config holds the connection settings for the Databricks REST API.
type Config struct {
	Host           string `json:"host"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	return nil
}

// Client implements coordinator.ComputeClient against the Databricks REST
// API (clusters 2.0, jobs 2.1).
type Client struct {
	host   string
	token  string
	client *http.Client
	log    logger.Logger
}

// New creates a Client from the configuration.
func New(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		host:   cfg.Host,
		token:  cfg.Token,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:    logger.New("databricks-client"),
	}, nil
}

type clusterInfo struct {
	ClusterID   string `json:"cluster_id"`
	ClusterName string `json:"cluster_name"`
	State       string `json:"state"`
}

// ListClusters returns the engine's cluster roster.
func (c *Client) ListClusters(ctx context.Context) ([]coordinator.ClusterInfo, error) {
	var resp struct {
		Clusters []clusterInfo `json:"clusters"`
	}
	if err := c.get(ctx, "/api/2.0/clusters/list", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]coordinator.ClusterInfo, len(resp.Clusters))
	for i, cl := range resp.Clusters {
		out[i] = coordinator.ClusterInfo{ID: cl.ClusterID, Name: cl.ClusterName, State: cl.State}
	}
	return out, nil
}

// StartCluster issues a start command for the cluster.
func (c *Client) StartCluster(ctx context.Context, clusterID string) error {
	return c.post(ctx, "/api/2.0/clusters/start", map[string]any{"cluster_id": clusterID}, nil)
}

// GetCluster fetches the current cluster state.
func (c *Client) GetCluster(ctx context.Context, clusterID string) (coordinator.ClusterInfo, error) {
	var resp clusterInfo
	q := url.Values{"cluster_id": []string{clusterID}}
	if err := c.get(ctx, "/api/2.0/clusters/get", q, &resp); err != nil {
		return coordinator.ClusterInfo{}, err
	}
	return coordinator.ClusterInfo{ID: resp.ClusterID, Name: resp.ClusterName, State: resp.State}, nil
}

// SubmitJob creates a job attached to an existing cluster and returns the
// engine job id.
func (c *Client) SubmitJob(ctx context.Context, def coordinator.JobDefinition) (int64, error) {
	body := map[string]any{
		"name":                def.Name,
		"existing_cluster_id": def.ClusterID,
		"spark_python_task": map[string]any{
			"python_file": def.EntryPoint,
			"parameters":  def.Parameters,
		},
	}
	var resp struct {
		JobID int64 `json:"job_id"`
	}
	if err := c.post(ctx, "/api/2.1/jobs/create", body, &resp); err != nil {
		return 0, err
	}
	return resp.JobID, nil
}

// RunNow triggers the job and returns the run id.
func (c *Client) RunNow(ctx context.Context, jobID int64) (int64, error) {
	var resp struct {
		RunID int64 `json:"run_id"`
	}
	if err := c.post(ctx, "/api/2.1/jobs/run-now", map[string]any{"job_id": jobID}, &resp); err != nil {
		return 0, err
	}
	return resp.RunID, nil
}

// Run life cycle states reported by the jobs API.
const (
	runLifeCycleTerminated    = "TERMINATED"
	runLifeCycleSkipped       = "SKIPPED"
	runLifeCycleInternalError = "INTERNAL_ERROR"
	runResultSuccess          = "SUCCESS"
)

// GetRun fetches the run status.
func (c *Client) GetRun(ctx context.Context, runID int64) (coordinator.RunStatus, error) {
	var resp struct {
		State struct {
			LifeCycleState string `json:"life_cycle_state"`
			ResultState    string `json:"result_state"`
			StateMessage   string `json:"state_message"`
		} `json:"state"`
	}
	q := url.Values{"run_id": []string{strconv.FormatInt(runID, 10)}}
	if err := c.get(ctx, "/api/2.1/jobs/runs/get", q, &resp); err != nil {
		return coordinator.RunStatus{}, err
	}
	st := resp.State
	completed := st.LifeCycleState == runLifeCycleTerminated ||
		st.LifeCycleState == runLifeCycleSkipped ||
		st.LifeCycleState == runLifeCycleInternalError
	return coordinator.RunStatus{
		Completed: completed,
		Success:   st.LifeCycleState == runLifeCycleTerminated && st.ResultState == runResultSuccess,
		Message:   st.StateMessage,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warnf("close response body: %v", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
