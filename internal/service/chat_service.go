package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/config"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/llm"
	"doc-chat-go/pkg/log"
)

// ChatService runs one conversational turn: retrieve, generate, log.
type ChatService interface {
	StreamTurn(ctx context.Context, principalID *uint, conversationID uint, query string, writer llm.MessageWriter) error
}

type chatService struct {
	cfg         *config.Config
	guard       AccessGuard
	history     HistoryService
	retrieval   RetrievalService
	messageRepo repository.MessageRepository
	llmClient   llm.Client

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewChatService(
	cfg *config.Config,
	guard AccessGuard,
	history HistoryService,
	retrieval RetrievalService,
	messageRepo repository.MessageRepository,
	llmClient llm.Client,
) ChatService {
	return &chatService{
		cfg:         cfg,
		guard:       guard,
		history:     history,
		retrieval:   retrieval,
		messageRepo: messageRepo,
		llmClient:   llmClient,
		locks:       make(map[uint]*sync.Mutex),
	}
}

// conversationLock returns the mutex serializing turns of one conversation,
// so the user/assistant append pair of a turn is never interleaved with
// another turn's pair.
func (s *chatService) conversationLock(conversationID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[conversationID] = l
	}
	return l
}

// capturingWriter passes chunks through to the underlying writer while
// accumulating the full assistant reply for the message log.
type capturingWriter struct {
	inner llm.MessageWriter
	buf   strings.Builder
}

func (w *capturingWriter) WriteMessage(messageType int, data []byte) error {
	w.buf.Write(data)
	return w.inner.WriteMessage(messageType, data)
}

// StreamTurn processes one turn of a conversation. The user message is
// logged before retrieval and generation, so it survives any later failure
// of the turn; the assistant message is logged only after the stream
// completed.
func (s *chatService) StreamTurn(ctx context.Context, principalID *uint, conversationID uint, query string, writer llm.MessageWriter) error {
	if _, err := s.guard.Authorize(principalID, conversationID, ActionWrite); err != nil {
		return err
	}

	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	window, err := s.history.RecentWindow(ctx, conversationID)
	if err != nil {
		return err
	}

	if _, err := s.messageRepo.Append(ctx, conversationID, model.RoleUser, query); err != nil {
		return fmt.Errorf("failed to log user message: %w", err)
	}

	passages, err := s.retrieval.Retrieve(ctx, conversationID, query)
	if err != nil {
		return err
	}

	messages := make([]llm.Message, 0, len(window)+2)
	messages = append(messages, llm.Message{Role: "system", Content: s.buildSystemMessage(passages)})
	for _, m := range window {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: model.RoleUser, Content: query})

	capture := &capturingWriter{inner: writer}
	if err := s.llmClient.StreamChatMessages(ctx, messages, s.generationParams(), capture); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUpstreamModel, err)
	}

	if _, err := s.messageRepo.Append(ctx, conversationID, model.RoleAssistant, capture.buf.String()); err != nil {
		// The reply already reached the client; losing the log entry is
		// worth a warning, not a failed turn.
		log.Warnf("[ChatService] failed to log assistant message for conversation %d: %v", conversationID, err)
	}
	return nil
}

// buildSystemMessage assembles the grounding context served to the model.
// Passages keep their merged order; each is numbered and attributed to its
// source file so the model can cite it.
func (s *chatService) buildSystemMessage(passages []RetrievedPassage) string {
	prompt := s.cfg.LLM.Prompt

	var b strings.Builder
	if prompt.Rules != "" {
		b.WriteString(prompt.Rules)
		b.WriteString("\n\n")
	}
	if len(passages) == 0 {
		b.WriteString(prompt.NoResultText)
		return b.String()
	}

	b.WriteString(prompt.RefStart)
	b.WriteString("\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, p.FileName, p.Text)
	}
	b.WriteString(prompt.RefEnd)
	return b.String()
}

func (s *chatService) generationParams() *llm.GenerationParams {
	gen := s.cfg.LLM.Generation
	params := &llm.GenerationParams{}
	if gen.Temperature > 0 {
		params.Temperature = &gen.Temperature
	}
	if gen.TopP > 0 {
		params.TopP = &gen.TopP
	}
	if gen.MaxTokens > 0 {
		params.MaxTokens = &gen.MaxTokens
	}
	return params
}
