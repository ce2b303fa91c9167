package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorizerFitTransform(t *testing.T) {
	vec, err := NewVectorizer(DefaultVectorizerParams())
	require.NoError(t, err)

	rows, err := vec.FitTransform([]string{"data scientist", "data engineer"})
	require.NoError(t, err)

	assert.Equal(t, []string{"data", "engineer", "scientist"}, vec.Terms())
	assert.InDelta(t, 1.0, vec.IDF[0], 1e-12)
	assert.InDelta(t, 1+math.Log(1.5), vec.IDF[1], 1e-12)
	assert.InDelta(t, 1+math.Log(1.5), vec.IDF[2], 1e-12)

	require.Len(t, rows, 2)
	assert.Equal(t, []int{0, 2}, rows[0].Indices)
	assert.InDelta(t, 0.57973867, rows[0].Values[0], 1e-6)
	assert.InDelta(t, 0.81480247, rows[0].Values[1], 1e-6)
	assert.Equal(t, []int{0, 1}, rows[1].Indices)

	for _, r := range rows {
		assert.InDelta(t, 1.0, r.SquaredNorm(), 1e-12)
	}
}

func TestVectorizerTokenization(t *testing.T) {
	vec, err := NewVectorizer(DefaultVectorizerParams())
	require.NoError(t, err)

	require.NoError(t, vec.Fit([]string{"C# / .NET Developer (Remote) - R&D", "Sr. QA_Engineer 2"}))

	assert.ElementsMatch(t,
		[]string{"c", "net", "developer", "remote", "r", "d", "sr", "qa_engineer", "2"},
		vec.Terms())
}

func TestVectorizerCountsRepeatedTerms(t *testing.T) {
	vec, err := NewVectorizer(DefaultVectorizerParams())
	require.NoError(t, err)

	rows, err := vec.FitTransform([]string{"sales sales manager", "manager"})
	require.NoError(t, err)

	// columns: manager, sales
	require.Equal(t, []int{0, 1}, rows[0].Indices)
	assert.Greater(t, rows[0].Values[1], rows[0].Values[0])
}

func TestVectorizerTransformIgnoresUnknownTerms(t *testing.T) {
	vec, err := NewVectorizer(DefaultVectorizerParams())
	require.NoError(t, err)
	require.NoError(t, vec.Fit([]string{"go developer"}))

	rows, err := vec.Transform([]string{"rust developer", "plumber"})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, rows[0].Indices)
	assert.InDelta(t, 1.0, rows[0].Values[0], 1e-12)
	assert.Empty(t, rows[1].Indices)
}

func TestVectorizerErrors(t *testing.T) {
	vec, err := NewVectorizer(DefaultVectorizerParams())
	require.NoError(t, err)

	_, err = vec.Transform([]string{"go"})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, vec.Fit([]string{"", "  ", "!!"}), ErrEmptyVocabulary)
	assert.ErrorIs(t, vec.Fit(nil), ErrEmptyVocabulary)

	_, err = NewVectorizer(VectorizerParams{TokenPattern: "(", Norm: "l2"})
	assert.Error(t, err)

	_, err = NewVectorizer(VectorizerParams{Norm: "l1"})
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	params := DefaultVectorizerParams()

	vec, err := Restore(params, map[string]int{"data": 0, "engineer": 1}, []float64{1, 1.4})
	require.NoError(t, err)
	assert.True(t, vec.Fitted())
	assert.Equal(t, 2, vec.Features())

	_, err = Restore(params, map[string]int{}, nil)
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = Restore(params, map[string]int{"data": 0}, []float64{1, 2})
	assert.Error(t, err)

	_, err = Restore(params, map[string]int{"data": 3}, []float64{1})
	assert.Error(t, err)
}
