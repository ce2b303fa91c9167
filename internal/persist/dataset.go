package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

var ErrUnlabeledRecord = errors.New("persist: record has no cluster label")

// DatasetHeader is the header row of the labeled dataset file.
var DatasetHeader = []string{"title", "company", "skills", "cluster"}

// datasetRow fixes the column order of the CSV file.
type datasetRow struct {
	Title   string `csv:"title"`
	Company string `csv:"company"`
	Skills  string `csv:"skills"`
	Cluster int    `csv:"cluster"`
}

// WriteDataset writes the labeled dataset as CSV with a header row and no
// index column. Every record must carry a cluster label.
func WriteDataset(path string, ds listing.Dataset) error {
	rows := make([]*datasetRow, len(ds))
	for i, r := range ds {
		if !r.Labeled() {
			return fmt.Errorf("write dataset: row %d (%q): %w", i, r.Title, ErrUnlabeledRecord)
		}
		rows[i] = &datasetRow{Title: r.Title, Company: r.Company, Skills: r.Skills, Cluster: *r.Cluster}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write dataset: create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	defer file.Close()

	if err := gocsv.Marshal(&rows, file); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}

// ReadDataset parses a file written by WriteDataset.
func ReadDataset(path string) (listing.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	defer file.Close()

	var rows []*datasetRow
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	ds := make(listing.Dataset, len(rows))
	for i, r := range rows {
		ds[i] = listing.Record{
			Title:   r.Title,
			Company: r.Company,
			Skills:  r.Skills,
			Cluster: listing.ClusterOf(r.Cluster),
		}
	}
	return ds, nil
}
