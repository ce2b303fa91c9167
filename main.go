package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/collector"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/config"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/enrich"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, logger, err := loadConfig(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Predict) > 0 {
		err = predict(cfg, stdout)
	} else {
		err = scrape(ctx, cfg, logger, stdout)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func scrape(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer) error {
	coll, err := collector.New(cfg.Collector(), logger.Named("collector"), stdout)
	if err != nil {
		return err
	}
	runner := &pipeline.Runner{
		Source:   coll.NewScraper(cfg.BrowserOptions()),
		Clusters: cfg.Clusters,
		Paths:    cfg.Paths(),
		Out:      stdout,
		Log:      logger.Named("pipeline"),
	}
	if cfg.Enrich.Enabled {
		e, err := enrich.New(cfg.Enricher(), logger.Named("enrich"))
		if err != nil {
			return err
		}
		runner.Enricher = e
	}

	_, err = runner.Run(ctx)
	return err
}

func predict(cfg config.Config, stdout io.Writer) error {
	preds, err := pipeline.Predict(cfg.Paths(), cfg.Predict)
	if err != nil {
		return err
	}
	return pipeline.WritePredictions(stdout, preds)
}
