package service

import (
	"context"
	"testing"

	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentWindowBoundedAndChronological(t *testing.T) {
	db := newTestDB(t)
	msgRepo := repository.NewMessageRepository(db, nil)
	conv := &model.Conversation{}
	require.NoError(t, db.Create(conv).Error)

	ctx := context.Background()
	// Five turns; the window in testConfig holds three turns (six messages).
	for i := 0; i < 5; i++ {
		_, err := msgRepo.Append(ctx, conv.ID, model.RoleUser, "question")
		require.NoError(t, err)
		_, err = msgRepo.Append(ctx, conv.ID, model.RoleAssistant, "answer")
		require.NoError(t, err)
	}

	svc := NewHistoryService(testConfig(), msgRepo)
	window, err := svc.RecentWindow(ctx, conv.ID)
	require.NoError(t, err)

	require.Len(t, window, 6)
	for i := 1; i < len(window); i++ {
		assert.True(t, window[i].Timestamp.After(window[i-1].Timestamp))
	}
	// The window always starts at a user message when turns are appended in
	// pairs.
	assert.Equal(t, model.RoleUser, window[0].Role)
	assert.Equal(t, model.RoleAssistant, window[len(window)-1].Role)
}

func TestRecentWindowEmptyConversation(t *testing.T) {
	db := newTestDB(t)
	msgRepo := repository.NewMessageRepository(db, nil)
	conv := &model.Conversation{}
	require.NoError(t, db.Create(conv).Error)

	svc := NewHistoryService(testConfig(), msgRepo)
	window, err := svc.RecentWindow(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Empty(t, window)
}
