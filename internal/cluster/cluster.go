// Package cluster groups job records by the TF-IDF vectors of their skills text.
package cluster

import (
	"fmt"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

// DefaultClusters is the number of groups used when none is configured.
const DefaultClusters = 5

// Assign vectorizes the skills text of every record and partitions the rows
// into k groups. The returned dataset is a labeled copy of ds.
//
// It fails on an empty dataset and when k exceeds the number of records; both
// are left to the caller rather than degraded into fewer clusters.
func Assign(ds listing.Dataset, k int) (listing.Dataset, *KMeans, *Vectorizer, error) {
	if len(ds) == 0 {
		return nil, nil, nil, ErrEmptyDataset
	}
	if k < 1 || k > len(ds) {
		return nil, nil, nil, fmt.Errorf("%w: n_samples=%d should be >= n_clusters=%d", ErrTooManyClusters, len(ds), k)
	}

	vec, err := NewVectorizer(DefaultVectorizerParams())
	if err != nil {
		return nil, nil, nil, err
	}
	rows, err := vec.FitTransform(ds.SkillTexts())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("vectorize skills: %w", err)
	}

	model := NewKMeans(DefaultKMeansParams(k))
	labels, err := model.FitPredict(rows, vec.Features())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fit k-means: %w", err)
	}

	out := ds.Clone()
	for i := range out {
		out[i].Cluster = listing.ClusterOf(labels[i])
	}
	return out, model, vec, nil
}

// Classify assigns new skills texts to clusters of an already fitted model.
func Classify(model *KMeans, vec *Vectorizer, skills []string) ([]int, error) {
	if !model.Fitted() {
		return nil, ErrModelNotFitted
	}
	if _, width := model.Centroids.Dims(); width != vec.Features() {
		return nil, fmt.Errorf("%w: model has %d features, vectorizer has %d", ErrDimensionMismatch, width, vec.Features())
	}
	rows, err := vec.Transform(skills)
	if err != nil {
		return nil, err
	}
	return model.Predict(rows)
}
