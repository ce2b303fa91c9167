// Package pipeline runs one scrape-to-disk pass: collect, normalize,
// optionally enrich, cluster, persist. Stages run strictly in that order and
// the first failure ends the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/cluster"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/normalize"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/persist"
)

// SampleRows is how many labeled rows are shown before the dataset is written.
const SampleRows = 5

type Stage int

const (
	Collecting Stage = iota
	Normalizing
	Enriching
	Clustering
	Persisting
	Done
)

func (s Stage) String() string {
	switch s {
	case Collecting:
		return "COLLECTING"
	case Normalizing:
		return "NORMALIZING"
	case Enriching:
		return "ENRICHING"
	case Clustering:
		return "CLUSTERING"
	case Persisting:
		return "PERSISTING"
	case Done:
		return "DONE"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// StageError ties a failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage reports the stage err came from, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return 0, false
}

// Source yields the raw listings of one page.
type Source interface {
	Scrape(ctx context.Context) (listing.Dataset, error)
}

// Enricher rewrites the skills text of normalized records.
type Enricher interface {
	Enrich(ctx context.Context, ds listing.Dataset) (listing.Dataset, error)
}

type Runner struct {
	Source Source
	// Enricher is optional; nil skips the ENRICHING stage.
	Enricher Enricher
	Clusters int
	Paths    persist.Paths
	// Out receives the progress lines and the sample table.
	Out io.Writer
	Log *zap.Logger
}

// Result holds what a successful run produced.
type Result struct {
	Dataset    listing.Dataset
	Model      *cluster.KMeans
	Vectorizer *cluster.Vectorizer
	Paths      persist.Paths
}

func (r *Runner) Run(ctx context.Context) (*Result, error) {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	fail := func(stage Stage, err error) (*Result, error) {
		log.Error("stage failed", zap.Stringer("stage", stage), zap.Error(err))
		return nil, &StageError{Stage: stage, Err: err}
	}
	enter := func(stage Stage, banner string) {
		log.Info("stage started", zap.Stringer("stage", stage))
		if banner != "" {
			fmt.Fprintln(out, banner)
		}
	}

	enter(Collecting, "Scraping job listings...")
	raw, err := r.Source.Scrape(ctx)
	if err != nil {
		return fail(Collecting, err)
	}

	enter(Normalizing, "Preprocessing data...")
	ds := normalize.Skills(raw)

	if r.Enricher != nil {
		enter(Enriching, "")
		ds, err = r.Enricher.Enrich(ctx, ds)
		if err != nil {
			return fail(Enriching, err)
		}
	}

	enter(Clustering, "Clustering jobs based on required skills...")
	labeled, model, vec, err := cluster.Assign(ds, r.Clusters)
	if err != nil {
		return fail(Clustering, err)
	}

	enter(Persisting, "Saving model and vectorizer...")
	if err := persist.SaveModel(r.Paths.Model, model); err != nil {
		return fail(Persisting, err)
	}
	if err := persist.SaveVectorizer(r.Paths.Vectorizer, vec); err != nil {
		return fail(Persisting, err)
	}
	fmt.Fprintln(out, "Clustered Data Sample:")
	if err := WriteSample(out, labeled.Head(SampleRows)); err != nil {
		return fail(Persisting, err)
	}
	if err := persist.WriteDataset(r.Paths.Dataset, labeled); err != nil {
		return fail(Persisting, err)
	}

	log.Info("run finished", zap.Stringer("stage", Done),
		zap.Int("records", len(labeled)),
		zap.Int("clusters", r.Clusters),
		zap.Int("iterations", model.NIter),
	)
	return &Result{Dataset: labeled, Model: model, Vectorizer: vec, Paths: r.Paths}, nil
}

// WriteSample prints ds as an aligned table with a leading row index.
func WriteSample(w io.Writer, ds listing.Dataset) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\ttitle\tcompany\tskills\tcluster")
	for i, r := range ds {
		label := ""
		if r.Labeled() {
			label = fmt.Sprint(*r.Cluster)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, r.Title, r.Company, r.Skills, label)
	}
	return tw.Flush()
}
