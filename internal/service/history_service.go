package service

import (
	"context"
	"fmt"

	"doc-chat-go/internal/config"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
)

// HistoryService reads back the bounded conversational memory used to
// condition generation. The full log stays durable; only the window served
// to the model is bounded.
type HistoryService interface {
	RecentWindow(ctx context.Context, conversationID uint) ([]model.ChatMessage, error)
}

type historyService struct {
	cfg         *config.Config
	messageRepo repository.MessageRepository
}

func NewHistoryService(cfg *config.Config, messageRepo repository.MessageRepository) HistoryService {
	return &historyService{cfg: cfg, messageRepo: messageRepo}
}

// RecentWindow returns the most recent messages in chronological order,
// capped at the configured window size. The cache is consulted first; a
// miss falls through to MySQL and repopulates it.
func (s *historyService) RecentWindow(ctx context.Context, conversationID uint) ([]model.ChatMessage, error) {
	limit := s.cfg.Chat.MaxHistoryTurns * 2 // user and assistant message per turn
	if cached, ok := s.messageRepo.GetCachedHistory(ctx, conversationID); ok {
		if len(cached) > limit {
			cached = cached[len(cached)-limit:]
		}
		return cached, nil
	}

	msgs, err := s.messageRepo.FindRecent(conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent history: %w", err)
	}

	// FindRecent returns newest first; the model wants oldest first.
	window := make([]model.ChatMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		window = append(window, model.ChatMessage{
			Role:      msgs[i].Role,
			Content:   msgs[i].Content,
			Timestamp: msgs[i].Timestamp,
		})
	}
	s.messageRepo.SetCachedHistory(ctx, conversationID, window)
	return window, nil
}
