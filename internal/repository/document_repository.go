// Package repository provides the data access layer.
package repository

import (
	"doc-chat-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository defines persistence operations for documents.
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByHash(contentHash string) (*model.Document, error)
	FindByID(id uint) (*model.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a DocumentRepository over gorm.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create inserts a new document row. The unique index on content_hash makes
// concurrent ingestions of identical bytes collide here as
// gorm.ErrDuplicatedKey instead of producing two rows.
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindByHash looks a document up by its content hash.
func (r *documentRepository) FindByHash(contentHash string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("content_hash = ?", contentHash).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByID looks a document up by its primary key.
func (r *documentRepository) FindByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}
