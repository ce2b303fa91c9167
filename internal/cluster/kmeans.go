package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSeed keeps clustering reproducible across runs.
const DefaultSeed uint64 = 42

var (
	ErrEmptyDataset      = errors.New("cluster: dataset is empty")
	ErrTooManyClusters   = errors.New("cluster: more clusters requested than records")
	ErrModelNotFitted    = errors.New("cluster: model is not fitted")
	ErrDimensionMismatch = errors.New("cluster: row width does not match model")
)

// KMeansParams are the clustering hyperparameters.
type KMeansParams struct {
	K       int     `json:"n_clusters"`
	Init    string  `json:"init"`
	NInit   int     `json:"n_init"`
	MaxIter int     `json:"max_iter"`
	Tol     float64 `json:"tol"`
	Seed    uint64  `json:"random_state"`
}

// DefaultKMeansParams returns k-means++ seeded with DefaultSeed.
func DefaultKMeansParams(k int) KMeansParams {
	return KMeansParams{
		K:       k,
		Init:    "k-means++",
		NInit:   1,
		MaxIter: 300,
		Tol:     1e-4,
		Seed:    DefaultSeed,
	}
}

// KMeans is a centroid model fitted with Lloyd iterations.
type KMeans struct {
	Params    KMeansParams
	Centroids *mat.Dense
	Inertia   float64
	NIter     int
}

// NewKMeans returns an unfitted model.
func NewKMeans(params KMeansParams) *KMeans {
	if params.NInit < 1 {
		params.NInit = 1
	}
	if params.MaxIter < 1 {
		params.MaxIter = 300
	}
	if params.Init == "" {
		params.Init = "k-means++"
	}
	return &KMeans{Params: params}
}

// Fitted reports whether centroids are available.
func (m *KMeans) Fitted() bool {
	return m.Centroids != nil
}

// FitPredict fits the model on rows of the given width and returns one label per row.
func (m *KMeans) FitPredict(rows []SparseVector, width int) ([]int, error) {
	n := len(rows)
	if n == 0 {
		return nil, ErrEmptyDataset
	}
	if m.Params.K < 1 {
		return nil, fmt.Errorf("%w: n_clusters=%d must be at least 1", ErrTooManyClusters, m.Params.K)
	}
	if m.Params.K > n {
		return nil, fmt.Errorf("%w: n_samples=%d should be >= n_clusters=%d", ErrTooManyClusters, n, m.Params.K)
	}
	if width < 1 {
		return nil, ErrEmptyVocabulary
	}

	rng := rand.New(rand.NewPCG(m.Params.Seed, m.Params.Seed))
	sqNorms := make([]float64, n)
	for i, r := range rows {
		sqNorms[i] = r.SquaredNorm()
	}
	tol := m.Params.Tol * meanVariance(rows, width)

	var (
		best        *mat.Dense
		bestLabels  []int
		bestInertia = math.Inf(1)
		bestIter    int
	)
	for run := 0; run < m.Params.NInit; run++ {
		centers := m.initCenters(rows, sqNorms, width, rng)
		labels, inertia, iters := lloyd(rows, sqNorms, centers, m.Params.MaxIter, tol)
		if inertia < bestInertia {
			best, bestLabels, bestInertia, bestIter = centers, labels, inertia, iters
		}
	}

	m.Centroids = best
	m.Inertia = bestInertia
	m.NIter = bestIter
	return bestLabels, nil
}

// Predict assigns each row to its nearest centroid.
func (m *KMeans) Predict(rows []SparseVector) ([]int, error) {
	if !m.Fitted() {
		return nil, ErrModelNotFitted
	}
	_, width := m.Centroids.Dims()
	for _, r := range rows {
		if len(r.Indices) > 0 && r.Indices[len(r.Indices)-1] >= width {
			return nil, ErrDimensionMismatch
		}
	}
	labels := make([]int, len(rows))
	cNorms := centerNorms(m.Centroids)
	for i, r := range rows {
		labels[i], _ = nearest(r, r.SquaredNorm(), m.Centroids, cNorms)
	}
	return labels, nil
}

// initCenters picks starting centroids with greedy k-means++: each new center is
// the best of several candidates sampled proportionally to squared distance.
func (m *KMeans) initCenters(rows []SparseVector, sqNorms []float64, width int, rng *rand.Rand) *mat.Dense {
	n, k := len(rows), m.Params.K
	centers := mat.NewDense(k, width, nil)
	trials := 2 + int(math.Log(float64(k)))

	first := rng.IntN(n)
	firstRow := rows[first].Dense(width)
	centers.SetRow(0, firstRow)

	closest := make([]float64, n)
	for i, r := range rows {
		closest[i] = sqDist(r, sqNorms[i], firstRow, sqNorms[first])
	}
	pot := floats.Sum(closest)

	cum := make([]float64, n)
	for c := 1; c < k; c++ {
		floats.CumSum(cum, closest)

		bestCand, bestPot := -1, math.Inf(1)
		var bestDist []float64
		for t := 0; t < trials; t++ {
			target := rng.Float64() * pot
			cand := sort.SearchFloat64s(cum, target)
			if cand >= n {
				cand = n - 1
			}
			candRow := rows[cand].Dense(width)
			dist := make([]float64, n)
			for i, r := range rows {
				dist[i] = math.Min(closest[i], sqDist(r, sqNorms[i], candRow, sqNorms[cand]))
			}
			if p := floats.Sum(dist); p < bestPot {
				bestCand, bestPot, bestDist = cand, p, dist
			}
		}

		centers.SetRow(c, rows[bestCand].Dense(width))
		closest = bestDist
		pot = bestPot
	}
	return centers
}

func lloyd(rows []SparseVector, sqNorms []float64, centers *mat.Dense, maxIter int, tol float64) ([]int, float64, int) {
	n := len(rows)
	k, width := centers.Dims()
	labels := make([]int, n)
	dists := make([]float64, n)

	iter := 0
	for iter < maxIter {
		iter++
		cNorms := centerNorms(centers)
		for i, r := range rows {
			labels[i], dists[i] = nearest(r, sqNorms[i], centers, cNorms)
		}

		next := mat.NewDense(k, width, nil)
		counts := make([]int, k)
		for i, r := range rows {
			row := next.RawRowView(labels[i])
			for j, idx := range r.Indices {
				row[idx] += r.Values[j]
			}
			counts[labels[i]]++
		}
		relocateEmpty(rows, labels, next, counts, dists)
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), next.RawRowView(c))
			}
		}

		var shift float64
		for c := 0; c < k; c++ {
			d := floats.Distance(next.RawRowView(c), centers.RawRowView(c), 2)
			shift += d * d
		}
		centers.Copy(next)
		if shift <= tol {
			break
		}
	}

	// final assignment against the converged centers
	cNorms := centerNorms(centers)
	var inertia float64
	for i, r := range rows {
		labels[i], dists[i] = nearest(r, sqNorms[i], centers, cNorms)
		inertia += dists[i]
	}
	return labels, inertia, iter
}

// relocateEmpty moves every empty cluster onto one of the points farthest from
// its current centroid. A point is taken at most once and never from a cluster
// it is the last member of.
func relocateEmpty(rows []SparseVector, labels []int, sums *mat.Dense, counts []int, dists []float64) {
	var empty []int
	for c, cnt := range counts {
		if cnt == 0 {
			empty = append(empty, c)
		}
	}
	if len(empty) == 0 {
		return
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] > dists[order[b]] })

	next := 0
	for _, c := range empty {
		for next < len(order) && counts[labels[order[next]]] < 2 {
			next++
		}
		if next >= len(order) {
			return
		}
		i := order[next]
		next++

		old := sums.RawRowView(labels[i])
		dst := sums.RawRowView(c)
		for j, idx := range rows[i].Indices {
			old[idx] -= rows[i].Values[j]
			dst[idx] = rows[i].Values[j]
		}
		counts[labels[i]]--
		counts[c] = 1
		labels[i] = c
	}
}

func nearest(r SparseVector, sqNorm float64, centers *mat.Dense, cNorms []float64) (int, float64) {
	k, _ := centers.Dims()
	best, bestDist := 0, math.Inf(1)
	for c := 0; c < k; c++ {
		d := sqDist(r, sqNorm, centers.RawRowView(c), cNorms[c])
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(r SparseVector, sqNorm float64, center []float64, centerSqNorm float64) float64 {
	d := sqNorm + centerSqNorm - 2*r.Dot(center)
	if d < 0 {
		return 0
	}
	return d
}

func centerNorms(centers *mat.Dense) []float64 {
	k, _ := centers.Dims()
	out := make([]float64, k)
	for c := 0; c < k; c++ {
		row := centers.RawRowView(c)
		out[c] = floats.Dot(row, row)
	}
	return out
}

// meanVariance is the mean over features of each column's population variance.
func meanVariance(rows []SparseVector, width int) float64 {
	n := float64(len(rows))
	sum := make([]float64, width)
	sumSq := make([]float64, width)
	for _, r := range rows {
		for j, idx := range r.Indices {
			sum[idx] += r.Values[j]
			sumSq[idx] += r.Values[j] * r.Values[j]
		}
	}
	var total float64
	for j := 0; j < width; j++ {
		mean := sum[j] / n
		total += sumSq[j]/n - mean*mean
	}
	return total / float64(width)
}
