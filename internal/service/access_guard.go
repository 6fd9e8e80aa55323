// Package service contains the application's business logic layer.
package service

import (
	"errors"
	"fmt"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"

	"gorm.io/gorm"
)

// Action names what the caller wants to do with a conversation. The access
// decision is the same for reads and writes; the action is carried for
// logging and future differentiation.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// AccessGuard resolves whether a caller may touch a conversation. Every
// conversation read or write path goes through Authorize before touching
// conversation state.
//
// Decision table:
//
//	owner unset          -> allowed for any caller, including anonymous
//	owner == principal   -> allowed
//	owner != principal   -> ErrForbidden
//	owner set, no caller -> ErrUnauthorized
//	conversation missing -> ErrNotFound
type AccessGuard interface {
	Authorize(principalID *uint, conversationID uint, action Action) (*model.Conversation, error)
}

type accessGuard struct {
	conversationRepo repository.ConversationRepository
}

// NewAccessGuard creates an AccessGuard over the conversation repository.
func NewAccessGuard(conversationRepo repository.ConversationRepository) AccessGuard {
	return &accessGuard{conversationRepo: conversationRepo}
}

// Authorize applies the decision table and returns the conversation on
// success so callers do not re-fetch it.
func (g *accessGuard) Authorize(principalID *uint, conversationID uint, action Action) (*model.Conversation, error) {
	conv, err := g.conversationRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: conversation %d", apperr.ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("failed to load conversation %d: %w", conversationID, err)
	}

	if conv.OwnerID == nil {
		return conv, nil
	}
	if principalID == nil {
		return nil, fmt.Errorf("%w: conversation %d requires authentication for %s", apperr.ErrUnauthorized, conversationID, action)
	}
	if *conv.OwnerID != *principalID {
		return nil, fmt.Errorf("%w: conversation %d is owned by another user", apperr.ErrForbidden, conversationID)
	}
	return conv, nil
}
