// Package model defines the Go structs mapped to database tables.
package model

import "time"

// Document is one deduplicated uploaded file plus its serialized searchable
// index. ContentHash is the deduplication key: re-uploading identical bytes
// must resolve to the existing row, never create a second one. Rows are
// immutable after creation.
type Document struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ContentHash string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_documents_content_hash" json:"contentHash"`
	IndexBlob   []byte    `gorm:"type:longblob;not null;column:index_blob" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table for this model.
func (Document) TableName() string {
	return "documents"
}
