package service

import (
	"context"
	"fmt"
	"io"
	"testing"

	"doc-chat-go/internal/config"
	"doc-chat-go/internal/model"
	"doc-chat-go/pkg/kafka"
	"doc-chat-go/pkg/llm"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory database with the schema migrated.
// TranslateError is on, matching production, so unique violations surface
// as gorm.ErrDuplicatedKey.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Conversation{},
		&model.ConversationDocument{},
		&model.Message{},
	))
	return db
}

func uintPtr(v uint) *uint { return &v }

type fakeEmbedder struct {
	vector  []float32
	failure error
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Model() string   { return "fake-model" }
func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

type fakeExtractor struct {
	text    string
	failure error
}

func (f *fakeExtractor) ExtractText(_ io.Reader, _ string) (string, error) {
	if f.failure != nil {
		return "", f.failure
	}
	return f.text, nil
}

type fakeBlobStore struct {
	puts    []string
	removes []string
}

func (f *fakeBlobStore) PutDocument(_ context.Context, contentHash string, _ []byte) error {
	f.puts = append(f.puts, contentHash)
	return nil
}

func (f *fakeBlobStore) RemoveDocument(_ context.Context, contentHash string) error {
	f.removes = append(f.removes, contentHash)
	return nil
}

type fakeEvents struct {
	events []kafka.DocumentIngestedEvent
}

func (f *fakeEvents) PublishDocumentIngested(_ context.Context, event kafka.DocumentIngestedEvent) {
	f.events = append(f.events, event)
}

// fakeLLM echoes configured chunks into the writer, or fails before writing
// anything.
type fakeLLM struct {
	chunks   []string
	failure  error
	messages []llm.Message
}

func (f *fakeLLM) StreamChatMessages(_ context.Context, messages []llm.Message, _ *llm.GenerationParams, writer llm.MessageWriter) error {
	f.messages = messages
	if f.failure != nil {
		return f.failure
	}
	for _, chunk := range f.chunks {
		if err := writer.WriteMessage(1, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}

type collectingWriter struct {
	chunks []string
}

func (w *collectingWriter) WriteMessage(_ int, data []byte) error {
	w.chunks = append(w.chunks, string(data))
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Upload:    config.UploadConfig{MaxFileSizeBytes: 1024},
		Retrieval: config.RetrievalConfig{TopKPerDocument: 2},
		Chat:      config.ChatConfig{MaxHistoryTurns: 3},
		LLM: config.LLMConfig{
			Prompt: config.LLMPromptConfig{
				Rules:        "Answer from the references.",
				RefStart:     "<references>",
				RefEnd:       "</references>",
				NoResultText: "No passages found.",
			},
		},
	}
}
