package pipeline

import (
	"fmt"
	"io"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/cluster"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/normalize"
	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/persist"
)

// Prediction is the cluster a saved model assigns to a new title.
type Prediction struct {
	Title   string
	Skills  string
	Cluster int
}

// Predict loads the saved vectorizer and model and classifies titles the same
// way the run that produced them classified scraped records.
func Predict(paths persist.Paths, titles []string) ([]Prediction, error) {
	vec, err := persist.LoadVectorizer(paths.Vectorizer)
	if err != nil {
		return nil, err
	}
	model, err := persist.LoadModel(paths.Model)
	if err != nil {
		return nil, err
	}

	ds := make(listing.Dataset, len(titles))
	for i, t := range titles {
		ds[i] = listing.Record{Title: t}
	}
	ds = normalize.Skills(ds)

	labels, err := cluster.Classify(model, vec, ds.SkillTexts())
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	preds := make([]Prediction, len(ds))
	for i, r := range ds {
		preds[i] = Prediction{Title: r.Title, Skills: r.Skills, Cluster: labels[i]}
	}
	return preds, nil
}

// WritePredictions prints one "cluster<TAB>title" line per prediction.
func WritePredictions(w io.Writer, preds []Prediction) error {
	for _, p := range preds {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", p.Cluster, p.Title); err != nil {
			return err
		}
	}
	return nil
}
