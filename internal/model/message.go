package model

import "time"

// Message roles. Only these two appear in the persisted log; the system
// prompt is assembled per turn and never stored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single utterance in a conversation. Timestamp is assigned by
// the repository and is strictly monotonic within a conversation so history
// replay and truncation are reproducible; rows are immutable once appended.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_conversation_messages,priority:1" json:"conversationId"`
	Role           string    `gorm:"type:varchar(16);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Timestamp      time.Time `gorm:"not null;index:idx_conversation_messages,priority:2" json:"timestamp"`
}

func (Message) TableName() string {
	return "messages"
}

// ChatMessage is the role/content pair handed to the generation capability
// and cached in Redis for recent history.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
