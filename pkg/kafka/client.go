// Package kafka publishes ingestion events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"doc-chat-go/internal/config"
	"doc-chat-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// DocumentIngestedEvent is emitted after a document row and its index have
// been durably persisted. Consumers outside this service (audit, analytics)
// subscribe to it; nothing in the ingestion path depends on delivery.
type DocumentIngestedEvent struct {
	DocumentID     uint      `json:"document_id"`
	ConversationID uint      `json:"conversation_id"`
	ContentHash    string    `json:"content_hash"`
	FileName       string    `json:"file_name"`
	Deduplicated   bool      `json:"deduplicated"`
	IngestedAt     time.Time `json:"ingested_at"`
}

// Producer wraps a kafka writer for ingestion events.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates the event producer for the configured topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishDocumentIngested sends a DocumentIngestedEvent. Failures are logged
// and swallowed: the event is informational, the ingestion already committed.
func (p *Producer) PublishDocumentIngested(ctx context.Context, event DocumentIngestedEvent) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("[Kafka] failed to marshal ingestion event: %v", err)
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Value: eventBytes})
	if err != nil {
		log.Errorf("[Kafka] failed to publish ingestion event (hash=%s): %v", event.ContentHash, err)
		return
	}
	log.Infof("[Kafka] published document.ingested event, documentID: %d", event.DocumentID)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
