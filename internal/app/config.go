package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PoolPaths    []string // pool definition files or directories
	Token        string   // file name fragment selecting pool files
	ScenarioPath string   // optional hcl scenario
	ExportPath   string   // optional yaml catalogue of the loaded pools

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// Serve keeps the status server running after the run until the
	// context is cancelled.
	Serve bool

	NotifyURL       string
	NotifyNamespace string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	var paths []string
	for _, p := range cfg.PoolPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("PoolPaths is a required configuration field and cannot be empty")
	}
	cfg.PoolPaths = paths

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort %d is out of range", cfg.HealthcheckPort)
	}
	if cfg.Serve && cfg.HealthcheckPort == 0 {
		return nil, errors.New("Serve requires a HealthcheckPort")
	}
	if cfg.NotifyNamespace != "" && !strings.HasPrefix(cfg.NotifyNamespace, "/") {
		return nil, fmt.Errorf("NotifyNamespace %q must start with '/'", cfg.NotifyNamespace)
	}

	return &cfg, nil
}
