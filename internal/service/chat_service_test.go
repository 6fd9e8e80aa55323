package service

import (
	"context"
	"strings"
	"testing"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/pipeline"
	"doc-chat-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	chat     ChatService
	docs     DocumentService
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
	llm      *fakeLLM
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()

	docRepo := repository.NewDocumentRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db, nil)
	guard := NewAccessGuard(convRepo)
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	builder := pipeline.NewBuilder(embedder)

	docs := NewDocumentService(cfg, docRepo, convRepo, guard, &fakeExtractor{text: "indexed document text"}, builder, nil, nil)
	retrieval := NewRetrievalService(cfg, convRepo, embedder)
	history := NewHistoryService(cfg, msgRepo)
	llmClient := &fakeLLM{chunks: []string{"hello ", "world"}}

	return &chatFixture{
		chat:     NewChatService(cfg, guard, history, retrieval, msgRepo, llmClient),
		docs:     docs,
		msgRepo:  msgRepo,
		convRepo: convRepo,
		llm:      llmClient,
	}
}

func (f *chatFixture) newConversationWithDocument(t *testing.T) uint {
	t.Helper()
	result, err := f.docs.Ingest(context.Background(), []byte("doc bytes"), "doc.pdf", nil, nil)
	require.NoError(t, err)
	return result.ConversationID
}

func TestStreamTurnAppendsMessagePair(t *testing.T) {
	fix := newChatFixture(t)
	convID := fix.newConversationWithDocument(t)
	writer := &collectingWriter{}

	err := fix.chat.StreamTurn(context.Background(), nil, convID, "what is this about?", writer)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello ", "world"}, writer.chunks)

	msgs, err := fix.msgRepo.FindAll(convID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "what is this about?", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hello world", msgs[1].Content)
	assert.True(t, msgs[1].Timestamp.After(msgs[0].Timestamp))
}

func TestStreamTurnSystemMessageCarriesReferences(t *testing.T) {
	fix := newChatFixture(t)
	convID := fix.newConversationWithDocument(t)

	err := fix.chat.StreamTurn(context.Background(), nil, convID, "question", &collectingWriter{})
	require.NoError(t, err)

	require.NotEmpty(t, fix.llm.messages)
	system := fix.llm.messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "<references>")
	assert.Contains(t, system.Content, "[1] (doc.pdf)")
	assert.Contains(t, system.Content, "</references>")

	last := fix.llm.messages[len(fix.llm.messages)-1]
	assert.Equal(t, model.RoleUser, last.Role)
	assert.Equal(t, "question", last.Content)
}

func TestStreamTurnIncludesHistoryWindow(t *testing.T) {
	fix := newChatFixture(t)
	convID := fix.newConversationWithDocument(t)

	require.NoError(t, fix.chat.StreamTurn(context.Background(), nil, convID, "first question", &collectingWriter{}))
	require.NoError(t, fix.chat.StreamTurn(context.Background(), nil, convID, "second question", &collectingWriter{}))

	// system + first turn pair + current user message
	require.Len(t, fix.llm.messages, 4)
	assert.Equal(t, "first question", fix.llm.messages[1].Content)
	assert.Equal(t, "hello world", fix.llm.messages[2].Content)
	assert.Equal(t, "second question", fix.llm.messages[3].Content)
}

func TestStreamTurnNoDocuments(t *testing.T) {
	fix := newChatFixture(t)
	conv := &model.Conversation{}
	require.NoError(t, fix.convRepo.Create(conv))

	err := fix.chat.StreamTurn(context.Background(), nil, conv.ID, "question", &collectingWriter{})
	assert.ErrorIs(t, err, apperr.ErrNoDocuments)

	// The user message was already logged; the turn fails after it.
	msgs, findErr := fix.msgRepo.FindAll(conv.ID)
	require.NoError(t, findErr)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestStreamTurnUserMessageSurvivesGenerationFailure(t *testing.T) {
	fix := newChatFixture(t)
	convID := fix.newConversationWithDocument(t)
	fix.llm.failure = assert.AnError

	err := fix.chat.StreamTurn(context.Background(), nil, convID, "doomed question", &collectingWriter{})
	assert.ErrorIs(t, err, apperr.ErrUpstreamModel)

	msgs, findErr := fix.msgRepo.FindAll(convID)
	require.NoError(t, findErr)
	require.Len(t, msgs, 1)
	assert.Equal(t, "doomed question", msgs[0].Content)
}

func TestStreamTurnAccessDenied(t *testing.T) {
	fix := newChatFixture(t)
	owned := &model.Conversation{OwnerID: uintPtr(1)}
	require.NoError(t, fix.convRepo.Create(owned))

	err := fix.chat.StreamTurn(context.Background(), nil, owned.ID, "q", &collectingWriter{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	err = fix.chat.StreamTurn(context.Background(), uintPtr(2), owned.ID, "q", &collectingWriter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// Denied turns log nothing.
	msgs, findErr := fix.msgRepo.FindAll(owned.ID)
	require.NoError(t, findErr)
	assert.Empty(t, msgs)
}

func TestStreamTurnMissingConversation(t *testing.T) {
	fix := newChatFixture(t)

	err := fix.chat.StreamTurn(context.Background(), nil, 9999, "q", &collectingWriter{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBuildSystemMessageNumbersPassagesAcrossDocuments(t *testing.T) {
	svc := &chatService{cfg: testConfig()}

	content := svc.buildSystemMessage([]RetrievedPassage{
		{FileName: "a.pdf", Text: "alpha"},
		{FileName: "b.pdf", Text: "beta"},
	})

	assert.True(t, strings.Contains(content, "[1] (a.pdf) alpha"))
	assert.True(t, strings.Contains(content, "[2] (b.pdf) beta"))
	assert.Less(t, strings.Index(content, "[1]"), strings.Index(content, "[2]"))
}

func TestBuildSystemMessageNoPassages(t *testing.T) {
	svc := &chatService{cfg: testConfig()}

	content := svc.buildSystemMessage(nil)
	assert.Equal(t, "Answer from the references.\n\nNo passages found.", content)
}
