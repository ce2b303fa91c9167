package cluster

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultTokenPattern matches runs of word characters, single letters included.
const DefaultTokenPattern = `[\p{L}\p{N}_]+`

var (
	ErrEmptyVocabulary = errors.New("cluster: empty vocabulary; documents contain no tokens")
	ErrNotFitted       = errors.New("cluster: vectorizer is not fitted")
)

// VectorizerParams are the TF-IDF hyperparameters. They are written into the
// persisted artifact so a reload rebuilds the same transform.
type VectorizerParams struct {
	TokenPattern string `json:"token_pattern"`
	Lowercase    bool   `json:"lowercase"`
	SmoothIDF    bool   `json:"smooth_idf"`
	SublinearTF  bool   `json:"sublinear_tf"`
	Norm         string `json:"norm"`
}

// DefaultVectorizerParams returns the weighting used for job skills text.
func DefaultVectorizerParams() VectorizerParams {
	return VectorizerParams{
		TokenPattern: DefaultTokenPattern,
		Lowercase:    true,
		SmoothIDF:    true,
		SublinearTF:  false,
		Norm:         "l2",
	}
}

// SparseVector is one row of the feature matrix. Indices are ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product with a dense row of the same width.
func (v SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * dense[idx]
	}
	return sum
}

// SquaredNorm returns ||v||².
func (v SparseVector) SquaredNorm() float64 {
	return floats.Dot(v.Values, v.Values)
}

// Dense expands the row to a full slice of the given width.
func (v SparseVector) Dense(width int) []float64 {
	out := make([]float64, width)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// Vectorizer turns text into TF-IDF weighted sparse rows.
type Vectorizer struct {
	Params     VectorizerParams
	Vocabulary map[string]int
	IDF        []float64

	pattern *regexp.Regexp
}

// NewVectorizer builds an unfitted vectorizer.
func NewVectorizer(params VectorizerParams) (*Vectorizer, error) {
	if params.TokenPattern == "" {
		params.TokenPattern = DefaultTokenPattern
	}
	switch params.Norm {
	case "", "l2", "none":
	default:
		return nil, fmt.Errorf("cluster: unsupported norm %q", params.Norm)
	}
	re, err := regexp.Compile(params.TokenPattern)
	if err != nil {
		return nil, fmt.Errorf("cluster: compile token pattern: %w", err)
	}
	return &Vectorizer{Params: params, pattern: re}, nil
}

// Restore rebuilds a fitted vectorizer from persisted state.
func Restore(params VectorizerParams, vocabulary map[string]int, idf []float64) (*Vectorizer, error) {
	v, err := NewVectorizer(params)
	if err != nil {
		return nil, err
	}
	if len(vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(vocabulary) != len(idf) {
		return nil, fmt.Errorf("cluster: vocabulary has %d terms but idf has %d weights", len(vocabulary), len(idf))
	}
	for term, col := range vocabulary {
		if col < 0 || col >= len(idf) {
			return nil, fmt.Errorf("cluster: term %q maps to column %d out of range", term, col)
		}
	}
	v.Vocabulary = vocabulary
	v.IDF = idf
	return v, nil
}

// Fitted reports whether Fit has produced a vocabulary.
func (v *Vectorizer) Fitted() bool {
	return len(v.Vocabulary) > 0
}

// Features returns the number of columns, i.e. the vocabulary size.
func (v *Vectorizer) Features() int {
	return len(v.Vocabulary)
}

// Terms returns the vocabulary ordered by column.
func (v *Vectorizer) Terms() []string {
	out := make([]string, len(v.Vocabulary))
	for term, col := range v.Vocabulary {
		out[col] = term
	}
	return out
}

func (v *Vectorizer) tokenize(doc string) []string {
	if v.Params.Lowercase {
		doc = strings.ToLower(doc)
	}
	return v.pattern.FindAllString(doc, -1)
}

// Fit learns the vocabulary and document frequencies of docs.
func (v *Vectorizer) Fit(docs []string) error {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range v.tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	smooth := 0.0
	if v.Params.SmoothIDF {
		smooth = 1
	}
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for col, term := range terms {
		v.Vocabulary[term] = col
		v.IDF[col] = math.Log((n+smooth)/(float64(df[term])+smooth)) + 1
	}
	return nil
}

// Transform maps docs onto the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(docs []string) ([]SparseVector, error) {
	if !v.Fitted() {
		return nil, ErrNotFitted
	}
	rows := make([]SparseVector, len(docs))
	for i, doc := range docs {
		counts := make(map[int]float64)
		for _, tok := range v.tokenize(doc) {
			if col, ok := v.Vocabulary[tok]; ok {
				counts[col]++
			}
		}
		row := SparseVector{
			Indices: make([]int, 0, len(counts)),
			Values:  make([]float64, 0, len(counts)),
		}
		for col := range counts {
			row.Indices = append(row.Indices, col)
		}
		sort.Ints(row.Indices)
		for _, col := range row.Indices {
			tf := counts[col]
			if v.Params.SublinearTF {
				tf = 1 + math.Log(tf)
			}
			row.Values = append(row.Values, tf*v.IDF[col])
		}
		if v.Params.Norm == "l2" || v.Params.Norm == "" {
			if norm := floats.Norm(row.Values, 2); norm > 0 {
				floats.Scale(1/norm, row.Values)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// FitTransform is Fit followed by Transform on the same docs.
func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}
