// Package pipeline turns decoded document text into a searchable index.
package pipeline

import (
	"context"
	"fmt"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/index"
	"doc-chat-go/pkg/embedding"
	"doc-chat-go/pkg/log"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

// Builder builds per-document indices. It is stateless and safe for
// concurrent use; one build is a pure function of the text given a fixed
// embedding model.
type Builder struct {
	embeddingClient embedding.Client
}

// NewBuilder creates a Builder over the given embedding client.
func NewBuilder(embeddingClient embedding.Client) *Builder {
	return &Builder{embeddingClient: embeddingClient}
}

// Build chunks the text into overlapping passages, embeds each one, and
// returns the assembled index. Any embedding failure aborts the build with
// apperr.ErrIndexBuild so the caller persists nothing.
func (b *Builder) Build(ctx context.Context, textContent string) (*index.Index, error) {
	chunks := splitText(textContent, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text chunks produced", apperr.ErrIndexBuild)
	}
	log.Infof("[Builder] text split into %d chunks", len(chunks))

	passages := make([]index.Passage, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := b.embeddingClient.CreateEmbedding(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding chunk %d: %v", apperr.ErrIndexBuild, i, err)
		}
		passages = append(passages, index.Passage{Seq: i, Text: chunk, Vector: vector})
	}

	return &index.Index{
		Model:      b.embeddingClient.Model(),
		Dimensions: b.embeddingClient.Dimensions(),
		Passages:   passages,
	}, nil
}

// splitText splits long text into rune windows of chunkSize with
// chunkOverlap runes shared between neighbors.
func splitText(text string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= chunkOverlap {
		return simpleSplit(text, chunkSize)
	}

	var chunks []string
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := chunkSize - chunkOverlap
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func simpleSplit(text string, chunkSize int) []string {
	var chunks []string
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
