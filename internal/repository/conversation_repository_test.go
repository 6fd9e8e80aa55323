package repository

import (
	"testing"

	"doc-chat-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedDocument(t *testing.T, db *gorm.DB, fileName string) uint {
	t.Helper()
	doc := &model.Document{FileName: fileName, ContentHash: fileName, IndexBlob: []byte("{}")}
	require.NoError(t, db.Create(doc).Error)
	return doc.ID
}

func TestAttachDocumentAssignsPositions(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	conv := &model.Conversation{}
	require.NoError(t, repo.Create(conv))

	first := seedDocument(t, db, "first.pdf")
	second := seedDocument(t, db, "second.pdf")
	require.NoError(t, repo.AttachDocument(conv.ID, first))
	require.NoError(t, repo.AttachDocument(conv.ID, second))

	docs, err := repo.FindDocuments(conv.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first.pdf", docs[0].FileName)
	assert.Equal(t, "second.pdf", docs[1].FileName)
}

func TestAttachDocumentTwiceFails(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	conv := &model.Conversation{}
	require.NoError(t, repo.Create(conv))

	docID := seedDocument(t, db, "doc.pdf")
	require.NoError(t, repo.AttachDocument(conv.ID, docID))

	err := repo.AttachDocument(conv.ID, docID)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestAttachSameDocumentToTwoConversations(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	convA := &model.Conversation{}
	convB := &model.Conversation{}
	require.NoError(t, repo.Create(convA))
	require.NoError(t, repo.Create(convB))

	docID := seedDocument(t, db, "shared.pdf")
	require.NoError(t, repo.AttachDocument(convA.ID, docID))
	require.NoError(t, repo.AttachDocument(convB.ID, docID))
}

func TestFindByOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)

	owner := uint(5)
	require.NoError(t, repo.Create(&model.Conversation{OwnerID: &owner}))
	require.NoError(t, repo.Create(&model.Conversation{OwnerID: &owner}))
	require.NoError(t, repo.Create(&model.Conversation{}))

	convs, err := repo.FindByOwner(owner)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}

func TestDocumentContentHashUnique(t *testing.T) {
	db := newTestDB(t)
	docRepo := NewDocumentRepository(db)

	require.NoError(t, docRepo.Create(&model.Document{FileName: "a.pdf", ContentHash: "h1", IndexBlob: []byte("{}")}))
	err := docRepo.Create(&model.Document{FileName: "b.pdf", ContentHash: "h1", IndexBlob: []byte("{}")})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
