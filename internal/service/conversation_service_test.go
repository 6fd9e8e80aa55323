package service

import (
	"context"
	"testing"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversationService(t *testing.T) (ConversationService, repository.ConversationRepository, repository.MessageRepository) {
	t.Helper()
	db := newTestDB(t)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db, nil)
	return NewConversationService(convRepo, msgRepo, NewAccessGuard(convRepo)), convRepo, msgRepo
}

func TestListConversationsAnonymousCallerGetsEmptyList(t *testing.T) {
	svc, convRepo, _ := newConversationService(t)
	require.NoError(t, convRepo.Create(&model.Conversation{}))

	summaries, err := svc.ListConversations(nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestListConversationsReturnsOnlyOwn(t *testing.T) {
	svc, convRepo, _ := newConversationService(t)
	require.NoError(t, convRepo.Create(&model.Conversation{OwnerID: uintPtr(1)}))
	require.NoError(t, convRepo.Create(&model.Conversation{OwnerID: uintPtr(2)}))
	require.NoError(t, convRepo.Create(&model.Conversation{}))

	summaries, err := svc.ListConversations(uintPtr(1))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestListMessagesAppliesAccessGuard(t *testing.T) {
	svc, convRepo, msgRepo := newConversationService(t)
	owned := &model.Conversation{OwnerID: uintPtr(1)}
	require.NoError(t, convRepo.Create(owned))
	_, err := msgRepo.Append(context.Background(), owned.ID, model.RoleUser, "hi")
	require.NoError(t, err)

	_, err = svc.ListMessages(nil, owned.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.ListMessages(uintPtr(2), owned.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	msgs, err := svc.ListMessages(uintPtr(1), owned.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestListMessagesMissingConversation(t *testing.T) {
	svc, _, _ := newConversationService(t)

	_, err := svc.ListMessages(nil, 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
