package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doc-chat-go/internal/model"
	"doc-chat-go/pkg/log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const historyCacheTTL = 7 * 24 * time.Hour

// MessageRepository defines persistence operations for the message log,
// backed by MySQL with an optional Redis read-through cache for the recent
// window.
type MessageRepository interface {
	Append(ctx context.Context, conversationID uint, role, content string) (*model.Message, error)
	FindRecent(conversationID uint, limit int) ([]model.Message, error)
	FindAll(conversationID uint) ([]model.Message, error)
	GetCachedHistory(ctx context.Context, conversationID uint) ([]model.ChatMessage, bool)
	SetCachedHistory(ctx context.Context, conversationID uint, messages []model.ChatMessage)
}

type messageRepository struct {
	db          *gorm.DB
	redisClient *redis.Client // may be nil, cache is then disabled
}

// NewMessageRepository creates a MessageRepository. redisClient may be nil;
// the durable log in MySQL is always authoritative.
func NewMessageRepository(db *gorm.DB, redisClient *redis.Client) MessageRepository {
	return &messageRepository{db: db, redisClient: redisClient}
}

func historyCacheKey(conversationID uint) string {
	return fmt.Sprintf("conversation:%d:history", conversationID)
}

// Append inserts one message with a timestamp strictly greater than every
// earlier message of the conversation. Callers serialize appends per
// conversation; the transaction here keeps the read-then-insert consistent
// against crashes, and the clock bump keeps ordering strict even when two
// appends land within the same clock tick.
func (r *messageRepository) Append(ctx context.Context, conversationID uint, role, content string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var last model.Message
		ts := time.Now().UTC()
		err := tx.Where("conversation_id = ?", conversationID).
			Order("timestamp desc, id desc").
			First(&last).Error
		if err == nil && !ts.After(last.Timestamp) {
			ts = last.Timestamp.Add(time.Microsecond)
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		msg.Timestamp = ts
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}

	// The durable row changed, drop the cached window.
	if r.redisClient != nil {
		if err := r.redisClient.Del(ctx, historyCacheKey(conversationID)).Err(); err != nil {
			log.Warnf("[MessageRepository] failed to invalidate history cache (conversation=%d): %v", conversationID, err)
		}
	}

	return msg, nil
}

// FindRecent returns the newest `limit` messages, newest first. Timestamp
// ties break by id so truncation is reproducible.
func (r *messageRepository) FindRecent(conversationID uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("timestamp desc, id desc").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// FindAll returns the full message log in chronological order.
func (r *messageRepository) FindAll(conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("timestamp asc, id asc").
		Find(&msgs).Error
	return msgs, err
}

// GetCachedHistory reads the cached recent window. A miss or any Redis
// failure reports false and the caller falls through to MySQL.
func (r *messageRepository) GetCachedHistory(ctx context.Context, conversationID uint) ([]model.ChatMessage, bool) {
	if r.redisClient == nil {
		return nil, false
	}
	jsonData, err := r.redisClient.Get(ctx, historyCacheKey(conversationID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warnf("[MessageRepository] history cache read failed (conversation=%d): %v", conversationID, err)
		return nil, false
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, false
	}
	return messages, true
}

// SetCachedHistory stores the recent window with a TTL.
func (r *messageRepository) SetCachedHistory(ctx context.Context, conversationID uint, messages []model.ChatMessage) {
	if r.redisClient == nil {
		return
	}
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, historyCacheKey(conversationID), jsonData, historyCacheTTL).Err(); err != nil {
		log.Warnf("[MessageRepository] history cache write failed (conversation=%d): %v", conversationID, err)
	}
}
