package service

import (
	"fmt"

	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
)

// ConversationSummary is one conversation as listed to its owner.
type ConversationSummary struct {
	ConversationID uint            `json:"conversationId"`
	CreatedAt      model.LocalTime `json:"createdAt"`
}

// ConversationService exposes conversation enumeration and transcript
// readback.
type ConversationService interface {
	ListConversations(principalID *uint) ([]ConversationSummary, error)
	ListMessages(principalID *uint, conversationID uint) ([]model.ChatMessage, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	guard            AccessGuard
}

func NewConversationService(conversationRepo repository.ConversationRepository, messageRepo repository.MessageRepository, guard AccessGuard) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		guard:            guard,
	}
}

// ListConversations returns the caller's conversations. Anonymous callers
// own nothing, so they get an empty list rather than an error.
func (s *conversationService) ListConversations(principalID *uint) ([]ConversationSummary, error) {
	if principalID == nil {
		return []ConversationSummary{}, nil
	}

	convs, err := s.conversationRepo.FindByOwner(*principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, ConversationSummary{
			ConversationID: c.ID,
			CreatedAt:      model.LocalTime(c.CreatedAt),
		})
	}
	return summaries, nil
}

// ListMessages returns the full transcript of a conversation in
// chronological order, after the access check.
func (s *conversationService) ListMessages(principalID *uint, conversationID uint) ([]model.ChatMessage, error) {
	if _, err := s.guard.Authorize(principalID, conversationID, ActionRead); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.FindAll(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, model.ChatMessage{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}
	return out, nil
}
