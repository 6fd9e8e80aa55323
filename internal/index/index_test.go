package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := &Index{
		Model:      "bge-m3",
		Dimensions: 3,
		Passages: []Passage{
			{Seq: 0, Text: "first", Vector: []float32{1, 0, 0}},
			{Seq: 1, Text: "second", Vector: []float32{0, 1, 0}},
		},
	}

	blob, err := Encode(idx)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, decoded.Version)
	assert.Equal(t, "bge-m3", decoded.Model)
	assert.Equal(t, 3, decoded.Dimensions)
	assert.Equal(t, idx.Passages, decoded.Passages)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version":99,"model":"m","dimensions":1,"passages":[]}`))
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	idx := &Index{
		Model:      "m",
		Dimensions: 2,
		Passages: []Passage{
			{Seq: 0, Text: "orthogonal", Vector: []float32{0, 1}},
			{Seq: 1, Text: "aligned", Vector: []float32{1, 0}},
			{Seq: 2, Text: "diagonal", Vector: []float32{1, 1}},
		},
	}

	hits := idx.Search([]float32{1, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "aligned", hits[0].Passage.Text)
	assert.Equal(t, "diagonal", hits[1].Passage.Text)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchTopKClampsToPassageCount(t *testing.T) {
	idx := &Index{
		Passages: []Passage{
			{Seq: 0, Text: "only", Vector: []float32{1}},
		},
	}

	hits := idx.Search([]float32{1}, 10)
	assert.Len(t, hits, 1)
}

func TestSearchTiesKeepPassageOrder(t *testing.T) {
	idx := &Index{
		Passages: []Passage{
			{Seq: 0, Text: "a", Vector: []float32{1, 0}},
			{Seq: 1, Text: "b", Vector: []float32{2, 0}}, // same direction, same cosine
		},
	}

	hits := idx.Search([]float32{1, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Passage.Text)
	assert.Equal(t, "b", hits[1].Passage.Text)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := &Index{}
	assert.Nil(t, idx.Search([]float32{1}, 5))
}

func TestSearchZeroTopK(t *testing.T) {
	idx := &Index{Passages: []Passage{{Seq: 0, Text: "x", Vector: []float32{1}}}}
	assert.Nil(t, idx.Search([]float32{1}, 0))
}

func TestCosineZeroVector(t *testing.T) {
	assert.Equal(t, float64(0), cosine([]float32{0, 0}, []float32{1, 1}))
}
