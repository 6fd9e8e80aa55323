package repository

import (
	"doc-chat-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository defines persistence operations for conversations
// and their document attachments.
type ConversationRepository interface {
	Create(conv *model.Conversation) error
	FindByID(id uint) (*model.Conversation, error)
	FindByOwner(ownerID uint) ([]model.Conversation, error)
	AttachDocument(conversationID, documentID uint) error
	FindDocuments(conversationID uint) ([]model.Document, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a ConversationRepository over gorm.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create inserts a new conversation. OwnerID stays exactly as given; a nil
// owner is a permanently anonymous conversation.
func (r *conversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID looks a conversation up by its primary key.
func (r *conversationRepository) FindByID(id uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByOwner returns all conversations owned by the given user.
func (r *conversationRepository) FindByOwner(ownerID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("owner_id = ?", ownerID).Order("id asc").Find(&convs).Error
	return convs, err
}

// AttachDocument links a document into a conversation at the next position.
// The composite unique index on (conversation_id, document_id) turns a
// concurrent double-attach into gorm.ErrDuplicatedKey on one side; the
// position read and the insert share one transaction.
func (r *conversationRepository) AttachDocument(conversationID, documentID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxPosition int64
		err := tx.Model(&model.ConversationDocument{}).
			Where("conversation_id = ?", conversationID).
			Count(&maxPosition).Error
		if err != nil {
			return err
		}

		link := &model.ConversationDocument{
			ConversationID: conversationID,
			DocumentID:     documentID,
			Position:       int(maxPosition),
		}
		return tx.Create(link).Error
	})
}

// FindDocuments returns a conversation's documents in attachment order.
func (r *conversationRepository) FindDocuments(conversationID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.
		Joins("JOIN conversation_documents ON conversation_documents.document_id = documents.id").
		Where("conversation_documents.conversation_id = ?", conversationID).
		Order("conversation_documents.position asc").
		Find(&docs).Error
	return docs, err
}
