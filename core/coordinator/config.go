package coordinator

import (
	"fmt"
	"time"
)

// Config carries the coordinator settings. Cluster and job names select the
// compute resources on the external engine; the storage fields are passed
// through to the submitted job untouched.
type Config struct {
	ClusterName              string `json:"cluster_name"`
	JobName                  string `json:"job_name"`
	EntryPoint               string `json:"entry_point"`
	ClusterPollSeconds       int    `json:"cluster_poll_seconds"`
	RunPollSeconds           int    `json:"run_poll_seconds"`
	ClusterTimeoutMinutes    int    `json:"cluster_timeout_minutes"`
	InputStorageAccountName  string `json:"input_storage_account_name"`
	InputStorageContainer    string `json:"input_storage_container"`
	InputPath                string `json:"input_path"`
	GridLossSysCorPath       string `json:"grid_loss_sys_cor_path"`
	ResultURL                string `json:"result_url"`
	SnapshotURL              string `json:"snapshot_url"`
	PersistLocation          string `json:"persist_location"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClusterPollSeconds <= 0 {
		c.ClusterPollSeconds = 5
	}
	if c.RunPollSeconds <= 0 {
		c.RunPollSeconds = 2
	}
	if c.ClusterTimeoutMinutes <= 0 {
		c.ClusterTimeoutMinutes = 20
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if c.JobName == "" {
		return fmt.Errorf("job_name is required")
	}
	if c.EntryPoint == "" {
		return fmt.Errorf("entry_point is required")
	}
	return nil
}

// ClusterPollInterval returns the cluster poll interval as a duration.
func (c Config) ClusterPollInterval() time.Duration {
	return time.Duration(c.ClusterPollSeconds) * time.Second
}

// RunPollInterval returns the run poll interval as a duration.
func (c Config) RunPollInterval() time.Duration {
	return time.Duration(c.RunPollSeconds) * time.Second
}

// ClusterTimeout returns the cluster start budget as a duration.
func (c Config) ClusterTimeout() time.Duration {
	return time.Duration(c.ClusterTimeoutMinutes) * time.Minute
}
