package repository

import (
	"context"
	"testing"

	"doc-chat-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsStrictlyIncreasingTimestamps(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db, nil)
	conv := &model.Conversation{}
	require.NoError(t, db.Create(conv).Error)

	ctx := context.Background()
	var prev *model.Message
	// Appends land faster than the clock ticks on most systems; the repo
	// must still never hand out an equal or earlier timestamp.
	for i := 0; i < 20; i++ {
		msg, err := repo.Append(ctx, conv.ID, model.RoleUser, "m")
		require.NoError(t, err)
		if prev != nil {
			assert.True(t, msg.Timestamp.After(prev.Timestamp),
				"message %d timestamp %v not after %v", i, msg.Timestamp, prev.Timestamp)
		}
		prev = msg
	}
}

func TestFindAllChronological(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db, nil)
	conv := &model.Conversation{}
	require.NoError(t, db.Create(conv).Error)

	ctx := context.Background()
	for _, content := range []string{"one", "two", "three"} {
		_, err := repo.Append(ctx, conv.ID, model.RoleUser, content)
		require.NoError(t, err)
	}

	msgs, err := repo.FindAll(conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
}

func TestFindRecentNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db, nil)
	conv := &model.Conversation{}
	require.NoError(t, db.Create(conv).Error)

	ctx := context.Background()
	for _, content := range []string{"one", "two", "three"} {
		_, err := repo.Append(ctx, conv.ID, model.RoleUser, content)
		require.NoError(t, err)
	}

	msgs, err := repo.FindRecent(conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
}

func TestAppendIsolatedPerConversation(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db, nil)
	convA := &model.Conversation{}
	convB := &model.Conversation{}
	require.NoError(t, db.Create(convA).Error)
	require.NoError(t, db.Create(convB).Error)

	ctx := context.Background()
	_, err := repo.Append(ctx, convA.ID, model.RoleUser, "for A")
	require.NoError(t, err)
	_, err = repo.Append(ctx, convB.ID, model.RoleUser, "for B")
	require.NoError(t, err)

	msgs, err := repo.FindAll(convA.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "for A", msgs[0].Content)
}
