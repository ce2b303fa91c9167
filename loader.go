package main

import (
	"io"

	"go.uber.org/zap"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/config"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/logging"
)

// loadConfig resolves the run settings and builds the logger they describe.
func loadConfig(args []string, usage io.Writer) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(args, usage)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
