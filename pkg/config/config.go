// Package config loads tenantd's YAML configuration file: cluster
// identity for the replicated map, the admin HTTP listen address,
// logging, storage paths, and the gateway's own module identity used by
// UpgradeOkapiModule at startup.
package config

import (
	"fmt"
	"os"

	"github.com/moduleplatform/tenantd/pkg/log"
	"gopkg.in/yaml.v3"
)

// ClusterConfig addresses the single Raft instance a process uses to
// replicate its tenant map and job store.
type ClusterConfig struct {
	NodeID   string `yaml:"nodeId"`
	BindAddr string `yaml:"bindAddr"`
	DataDir  string `yaml:"dataDir"`
	Join     string `yaml:"join,omitempty"`
}

// SelfModuleConfig identifies this running gateway process as a module
// id/version, consulted once at startup by UpgradeOkapiModule so any
// tenant still pointed at an older okapi-* module gets promoted.
type SelfModuleConfig struct {
	ModuleID string `yaml:"moduleId"`
	Version  string `yaml:"version"`
}

// Config is tenantd's top-level configuration, loaded once at process
// startup from a YAML file.
type Config struct {
	Cluster  ClusterConfig    `yaml:"cluster"`
	Self     SelfModuleConfig `yaml:"self"`
	HTTPAddr string           `yaml:"httpAddr"`
	StoreDir string           `yaml:"storeDir"`

	LogLevel string `yaml:"logLevel"`
	LogJSON  bool   `yaml:"logJson"`

	ProxyAddr string `yaml:"proxyAddr,omitempty"`
}

// Load reads and parses a YAML config file at path, applying defaults to
// anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cluster.DataDir == "" {
		c.Cluster.DataDir = "./data/raft"
	}
	if c.Cluster.BindAddr == "" {
		c.Cluster.BindAddr = "127.0.0.1:7950"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.StoreDir == "" {
		c.StoreDir = "./data/store"
	}
	if c.LogLevel == "" {
		c.LogLevel = string(log.InfoLevel)
	}
}
