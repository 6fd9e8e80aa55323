package model

import "time"

// Conversation is a collection of attached documents plus an ordered message
// log. OwnerID is nil for anonymous conversations, which stay reachable by
// any caller for their lifetime; ownership is fixed at creation and never
// reassigned.
type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   *uint     `gorm:"index" json:"ownerId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationDocument is the many-to-many join between conversations and
// documents. The composite unique index is the atomic check-then-insert that
// rejects duplicate attachments even under concurrent uploads; Position
// records attachment order for the retrieval merge.
type ConversationDocument struct {
	ID             uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint `gorm:"not null;uniqueIndex:ux_conversation_document" json:"conversationId"`
	DocumentID     uint `gorm:"not null;uniqueIndex:ux_conversation_document" json:"documentId"`
	Position       int  `gorm:"not null" json:"position"`
}

func (ConversationDocument) TableName() string {
	return "conversation_documents"
}
