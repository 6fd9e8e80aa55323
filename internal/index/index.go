// Package index defines the serialized per-document searchable index and
// similarity search over it. The format is a versioned JSON blob holding the
// passage list and one vector per passage; it deliberately contains no
// reference to the embedding capability, which is re-attached at query time.
package index

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// FormatVersion identifies the serialized layout. Decode rejects blobs with
// a different version instead of guessing.
const FormatVersion = 1

// Passage is one chunk of the document with its embedding vector.
type Passage struct {
	Seq    int       `json:"seq"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// Index is the searchable index of a single document.
type Index struct {
	Version    int       `json:"version"`
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Passages   []Passage `json:"passages"`
}

// Hit is one passage matched by a query, with its cosine similarity score.
// Scores are only comparable within the same index.
type Hit struct {
	Passage Passage
	Score   float64
}

// Encode serializes the index into its versioned blob form.
func Encode(idx *Index) ([]byte, error) {
	idx.Version = FormatVersion
	blob, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return blob, nil
}

// Decode parses a serialized index blob and validates its version.
func Decode(blob []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(blob, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	if idx.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported index format version %d", idx.Version)
	}
	return &idx, nil
}

// Search returns the topK passages most similar to the query vector, in
// descending score order. Ties keep passage order for determinism.
func (idx *Index) Search(queryVector []float32, topK int) []Hit {
	if topK <= 0 || len(idx.Passages) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(idx.Passages))
	for _, p := range idx.Passages {
		hits = append(hits, Hit{Passage: p, Score: cosine(queryVector, p.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}

// cosine computes cosine similarity without assuming normalized vectors.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
