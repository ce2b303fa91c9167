// Package persist writes the fitted model, the fitted vectorizer and the
// labeled dataset to disk, and reads them back.
//
// Model and vectorizer are stored as JSON documents that name their format,
// carry a version and embed the hyperparameters they were fitted with.
// Files are overwritten in place; a crash mid-write can leave a truncated file.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/cluster"
)

const (
	FormatKMeans     = "karkidi/kmeans"
	FormatVectorizer = "karkidi/tfidf-vectorizer"
	FormatVersion    = 1
)

// Default output file names, relative to the output directory.
const (
	DefaultModelFile      = "karkidi_kmeans_model.json"
	DefaultVectorizerFile = "karkidi_vectorizer.json"
	DefaultDatasetFile    = "karkidi_clustered_jobs.csv"
)

var ErrIncompatibleArtifact = errors.New("persist: incompatible artifact")

// Paths names the three output files of a run.
type Paths struct {
	Model      string
	Vectorizer string
	Dataset    string
}

// PathsIn returns the default file names inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Model:      filepath.Join(dir, DefaultModelFile),
		Vectorizer: filepath.Join(dir, DefaultVectorizerFile),
		Dataset:    filepath.Join(dir, DefaultDatasetFile),
	}
}

type header struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type modelFile struct {
	header
	Params    cluster.KMeansParams `json:"params"`
	Centroids [][]float64          `json:"centroids"`
	Inertia   float64              `json:"inertia"`
	NIter     int                  `json:"n_iter"`
}

type vectorizerFile struct {
	header
	Params     cluster.VectorizerParams `json:"params"`
	Vocabulary map[string]int           `json:"vocabulary"`
	IDF        []float64                `json:"idf"`
}

// SaveModel writes a fitted k-means model to path.
func SaveModel(path string, m *cluster.KMeans) error {
	if m == nil || !m.Fitted() {
		return fmt.Errorf("save model: %w", cluster.ErrModelNotFitted)
	}
	rows, _ := m.Centroids.Dims()
	centroids := make([][]float64, rows)
	for i := range centroids {
		centroids[i] = mat.Row(nil, i, m.Centroids)
	}
	doc := modelFile{
		header:    newHeader(FormatKMeans),
		Params:    m.Params,
		Centroids: centroids,
		Inertia:   m.Inertia,
		NIter:     m.NIter,
	}
	if err := writeJSON(path, doc); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (*cluster.KMeans, error) {
	var doc modelFile
	if err := readJSON(path, FormatKMeans, &doc); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if len(doc.Centroids) == 0 || len(doc.Centroids[0]) == 0 {
		return nil, fmt.Errorf("load model %s: %w: no centroids", path, ErrIncompatibleArtifact)
	}
	if len(doc.Centroids) != doc.Params.K {
		return nil, fmt.Errorf("load model %s: %w: %d centroids for n_clusters=%d", path, ErrIncompatibleArtifact, len(doc.Centroids), doc.Params.K)
	}
	width := len(doc.Centroids[0])
	data := make([]float64, 0, len(doc.Centroids)*width)
	for i, row := range doc.Centroids {
		if len(row) != width {
			return nil, fmt.Errorf("load model %s: %w: centroid %d has %d features, want %d", path, ErrIncompatibleArtifact, i, len(row), width)
		}
		data = append(data, row...)
	}

	m := cluster.NewKMeans(doc.Params)
	m.Centroids = mat.NewDense(len(doc.Centroids), width, data)
	m.Inertia = doc.Inertia
	m.NIter = doc.NIter
	return m, nil
}

// SaveVectorizer writes a fitted vectorizer to path.
func SaveVectorizer(path string, v *cluster.Vectorizer) error {
	if v == nil || !v.Fitted() {
		return fmt.Errorf("save vectorizer: %w", cluster.ErrNotFitted)
	}
	doc := vectorizerFile{
		header:     newHeader(FormatVectorizer),
		Params:     v.Params,
		Vocabulary: v.Vocabulary,
		IDF:        v.IDF,
	}
	if err := writeJSON(path, doc); err != nil {
		return fmt.Errorf("save vectorizer: %w", err)
	}
	return nil
}

// LoadVectorizer reads a vectorizer written by SaveVectorizer.
func LoadVectorizer(path string) (*cluster.Vectorizer, error) {
	var doc vectorizerFile
	if err := readJSON(path, FormatVectorizer, &doc); err != nil {
		return nil, fmt.Errorf("load vectorizer: %w", err)
	}
	v, err := cluster.Restore(doc.Params, doc.Vocabulary, doc.IDF)
	if err != nil {
		return nil, fmt.Errorf("load vectorizer %s: %w: %v", path, ErrIncompatibleArtifact, err)
	}
	return v, nil
}

func newHeader(format string) header {
	return header{Format: format, Version: FormatVersion, CreatedAt: time.Now().UTC()}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path, format string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrIncompatibleArtifact, err)
	}
	if h.Format != format {
		return fmt.Errorf("%s: %w: format %q, want %q", path, ErrIncompatibleArtifact, h.Format, format)
	}
	if h.Version != FormatVersion {
		return fmt.Errorf("%s: %w: version %d, want %d", path, ErrIncompatibleArtifact, h.Version, FormatVersion)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
