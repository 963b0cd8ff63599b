package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridhub/aggcoord/core/coordinator"
	"github.com/gridhub/aggcoord/core/market"
	"github.com/gridhub/aggcoord/infra/databricks"
	"github.com/gridhub/aggcoord/infra/metadata"
	"github.com/gridhub/aggcoord/infra/metrics"
	"github.com/gridhub/aggcoord/infra/mqtt"
)

// Config is the root configuration of the coordinator service.
type Config struct {
	Coordinator coordinator.Config     `json:"coordinator"`
	Databricks  databricks.Config      `json:"databricks"`
	Metadata    metadata.Config        `json:"metadata"`
	MQTT        mqtt.Config            `json:"mqtt"`
	Metrics     metrics.Config         `json:"metrics"`
	Market      market.Config          `json:"market"`
	Ownership   market.OwnershipConfig `json:"ownership"`
}

// Load reads the configuration file and applies environment overrides with
// the AGG_ prefix (AGG_COORDINATOR__CLUSTER_NAME overrides
// coordinator.cluster_name).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("AGG_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "agg_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}

	cfg.Coordinator.SetDefaults()
	cfg.Databricks.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Coordinator.Validate(); err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	if err := cfg.Databricks.Validate(); err != nil {
		return nil, fmt.Errorf("databricks: %w", err)
	}
	if err := cfg.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return &cfg, nil
}
