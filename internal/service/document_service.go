package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/config"
	"doc-chat-go/internal/index"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/pipeline"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/kafka"
	"doc-chat-go/pkg/log"

	"gorm.io/gorm"
)

// supportedExtensions lists the document types the decode step can handle.
var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".ppt":  {},
	".pptx": {},
	".txt":  {},
	".md":   {},
}

// TextExtractor decodes raw document bytes into plain text. The Tika client
// satisfies it.
type TextExtractor interface {
	ExtractText(fileReader io.Reader, fileName string) (string, error)
}

// BlobStore keeps the raw uploaded bytes, content-addressed. The MinIO
// client satisfies it.
type BlobStore interface {
	PutDocument(ctx context.Context, contentHash string, raw []byte) error
	RemoveDocument(ctx context.Context, contentHash string) error
}

// EventPublisher emits post-commit ingestion events. The kafka producer
// satisfies it.
type EventPublisher interface {
	PublishDocumentIngested(ctx context.Context, event kafka.DocumentIngestedEvent)
}

// IngestResult reports where an upload ended up.
type IngestResult struct {
	DocumentID     uint `json:"documentId"`
	ConversationID uint `json:"conversationId"`
	Deduplicated   bool `json:"deduplicated"`
}

// DocumentInfo is one attached document as surfaced to callers.
type DocumentInfo struct {
	DocumentID uint   `json:"documentId"`
	FileName   string `json:"fileName"`
}

// DocumentService owns document ingestion and listing.
type DocumentService interface {
	Ingest(ctx context.Context, raw []byte, fileName string, targetConversationID *uint, principalID *uint) (*IngestResult, error)
	ListDocuments(principalID *uint, conversationID uint) ([]DocumentInfo, error)
}

type documentService struct {
	cfg              *config.Config
	docRepo          repository.DocumentRepository
	conversationRepo repository.ConversationRepository
	guard            AccessGuard
	extractor        TextExtractor
	builder          *pipeline.Builder
	blobStore        BlobStore // may be nil (raw bytes then not retained)
	events           EventPublisher
}

// NewDocumentService creates a DocumentService. blobStore and events may be
// nil; both are side channels of a successful ingestion, not part of its
// contract.
func NewDocumentService(
	cfg *config.Config,
	docRepo repository.DocumentRepository,
	conversationRepo repository.ConversationRepository,
	guard AccessGuard,
	extractor TextExtractor,
	builder *pipeline.Builder,
	blobStore BlobStore,
	events EventPublisher,
) DocumentService {
	return &documentService{
		cfg:              cfg,
		docRepo:          docRepo,
		conversationRepo: conversationRepo,
		guard:            guard,
		extractor:        extractor,
		builder:          builder,
		blobStore:        blobStore,
		events:           events,
	}
}

// Ingest stores an upload. Identical bytes resolve to the existing document
// row; novel bytes are validated, indexed, and persisted as one new row.
// Either way the document is attached to the target conversation, or to a
// fresh conversation owned by the caller (or anonymous) when no target is
// given. No partial document survives any failure path.
func (s *documentService) Ingest(ctx context.Context, raw []byte, fileName string, targetConversationID *uint, principalID *uint) (*IngestResult, error) {
	if int64(len(raw)) > s.cfg.Upload.MaxFileSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", apperr.ErrSizeLimitExceeded, len(raw), s.cfg.Upload.MaxFileSizeBytes)
	}

	sum := sha256.Sum256(raw)
	contentHash := hex.EncodeToString(sum[:])
	log.Infof("[DocumentService] ingest start, file: %s, hash: %s", fileName, contentHash)

	doc, err := s.docRepo.FindByHash(contentHash)
	deduplicated := err == nil
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up document by hash: %w", err)
		}
		doc, err = s.createDocument(ctx, raw, fileName, contentHash)
		if err != nil {
			return nil, err
		}
	} else {
		log.Infof("[DocumentService] identical bytes already ingested as document %d, skipping index build", doc.ID)
	}

	conversationID, err := s.resolveConversation(targetConversationID, principalID)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.AttachDocument(conversationID, doc.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: document %d in conversation %d", apperr.ErrDuplicateAttachment, doc.ID, conversationID)
		}
		return nil, fmt.Errorf("failed to attach document: %w", err)
	}

	if s.events != nil {
		s.events.PublishDocumentIngested(ctx, kafka.DocumentIngestedEvent{
			DocumentID:     doc.ID,
			ConversationID: conversationID,
			ContentHash:    contentHash,
			FileName:       doc.FileName,
			Deduplicated:   deduplicated,
			IngestedAt:     time.Now().UTC(),
		})
	}

	log.Infof("[DocumentService] ingest done, documentID: %d, conversationID: %d, deduplicated: %v", doc.ID, conversationID, deduplicated)
	return &IngestResult{DocumentID: doc.ID, ConversationID: conversationID, Deduplicated: deduplicated}, nil
}

// createDocument handles the novel-bytes path: validate, decode, build the
// index, persist.
func (s *documentService) createDocument(ctx context.Context, raw []byte, fileName, contentHash string) (*model.Document, error) {
	if !isSupportedFileType(fileName) {
		return nil, fmt.Errorf("%w: unsupported file type %q", apperr.ErrInvalidDocument, filepath.Ext(fileName))
	}

	textContent, err := s.extractor.ExtractText(bytes.NewReader(raw), fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidDocument, err)
	}
	if strings.TrimSpace(textContent) == "" {
		return nil, fmt.Errorf("%w: no extractable text", apperr.ErrInvalidDocument)
	}

	idx, err := s.builder.Build(ctx, textContent)
	if err != nil {
		return nil, err
	}
	blob, err := index.Encode(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIndexBuild, err)
	}

	if s.blobStore != nil {
		if err := s.blobStore.PutDocument(ctx, contentHash, raw); err != nil {
			return nil, fmt.Errorf("failed to store raw document: %w", err)
		}
	}

	doc := &model.Document{
		FileName:    fileName,
		ContentHash: contentHash,
		IndexBlob:   blob,
	}
	if err := s.docRepo.Create(doc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent upload of the same bytes won the insert race.
			// Fall back to its row; ours was never visible.
			existing, findErr := s.docRepo.FindByHash(contentHash)
			if findErr == nil {
				return existing, nil
			}
		}
		if s.blobStore != nil {
			if rmErr := s.blobStore.RemoveDocument(ctx, contentHash); rmErr != nil {
				log.Warnf("[DocumentService] failed to remove orphaned blob %s: %v", contentHash, rmErr)
			}
		}
		return nil, fmt.Errorf("failed to persist document: %w", err)
	}
	return doc, nil
}

// resolveConversation authorizes the target conversation, or creates a new
// one owned by the caller present right now (nil caller means permanently
// anonymous).
func (s *documentService) resolveConversation(targetConversationID *uint, principalID *uint) (uint, error) {
	if targetConversationID != nil {
		if _, err := s.guard.Authorize(principalID, *targetConversationID, ActionWrite); err != nil {
			return 0, err
		}
		return *targetConversationID, nil
	}

	conv := &model.Conversation{OwnerID: principalID}
	if err := s.conversationRepo.Create(conv); err != nil {
		return 0, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv.ID, nil
}

// ListDocuments returns the documents of a conversation in attachment
// order, after the access check.
func (s *documentService) ListDocuments(principalID *uint, conversationID uint) ([]DocumentInfo, error) {
	if _, err := s.guard.Authorize(principalID, conversationID, ActionRead); err != nil {
		return nil, err
	}

	docs, err := s.conversationRepo.FindDocuments(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	infos := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, DocumentInfo{DocumentID: d.ID, FileName: d.FileName})
	}
	return infos, nil
}

func isSupportedFileType(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	_, ok := supportedExtensions[ext]
	return ok
}
