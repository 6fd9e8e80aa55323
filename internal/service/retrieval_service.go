package service

import (
	"context"
	"fmt"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/config"
	"doc-chat-go/internal/index"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/embedding"
	"doc-chat-go/pkg/log"

	"golang.org/x/sync/errgroup"
)

// RetrievedPassage is one passage pulled from one document's index during a
// chat turn. Score is meaningful only relative to passages of the same
// document.
type RetrievedPassage struct {
	DocumentID uint
	FileName   string
	Seq        int
	Text       string
	Score      float64
}

// RetrievalService searches every document attached to a conversation and
// merges the results.
type RetrievalService interface {
	Retrieve(ctx context.Context, conversationID uint, query string) ([]RetrievedPassage, error)
}

type retrievalService struct {
	cfg              *config.Config
	conversationRepo repository.ConversationRepository
	embeddingClient  embedding.Client
}

func NewRetrievalService(cfg *config.Config, conversationRepo repository.ConversationRepository, embeddingClient embedding.Client) RetrievalService {
	return &retrievalService{
		cfg:              cfg,
		conversationRepo: conversationRepo,
		embeddingClient:  embeddingClient,
	}
}

// Retrieve embeds the query once, searches each attached document's index
// concurrently, and concatenates the per-document results in attachment
// order. Scores from different documents are never compared, so no global
// re-ranking happens. Returns ErrNoDocuments when nothing is attached.
func (s *retrievalService) Retrieve(ctx context.Context, conversationID uint, query string) ([]RetrievedPassage, error) {
	docs, err := s.conversationRepo.FindDocuments(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attached documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: conversation %d", apperr.ErrNoDocuments, conversationID)
	}

	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", apperr.ErrUpstreamModel, err)
	}

	topK := s.cfg.Retrieval.TopKPerDocument
	perDoc := make([][]RetrievedPassage, len(docs))

	g, _ := errgroup.WithContext(ctx)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			idx, err := index.Decode(doc.IndexBlob)
			if err != nil {
				return fmt.Errorf("document %d: %w", doc.ID, err)
			}
			hits := idx.Search(queryVector, topK)

			passages := make([]RetrievedPassage, 0, len(hits))
			for _, h := range hits {
				passages = append(passages, RetrievedPassage{
					DocumentID: doc.ID,
					FileName:   doc.FileName,
					Seq:        h.Passage.Seq,
					Text:       h.Passage.Text,
					Score:      h.Score,
				})
			}
			perDoc[i] = passages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []RetrievedPassage
	for _, passages := range perDoc {
		merged = append(merged, passages...)
	}
	log.Infof("[RetrievalService] conversation %d: %d documents searched, %d passages retrieved", conversationID, len(docs), len(merged))
	return merged, nil
}
