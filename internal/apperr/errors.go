// Package apperr defines the error taxonomy shared across services and
// handlers. Callers classify failures with errors.Is against these
// sentinels; no error is ever identified by matching its message text.
package apperr

import "errors"

var (
	// ErrInvalidDocument marks an upload that is not a well-formed document
	// of a supported type. User-correctable.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrSizeLimitExceeded marks an upload rejected before any expensive
	// work because it exceeds the configured payload limit.
	ErrSizeLimitExceeded = errors.New("size limit exceeded")

	// ErrDuplicateAttachment marks an attempt to attach a document to a
	// conversation it already belongs to.
	ErrDuplicateAttachment = errors.New("document already attached to conversation")

	// ErrUsernameTaken marks a registration against an existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrNotFound marks a missing conversation or document.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks an unauthenticated caller on an owned
	// conversation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an authenticated caller that is not the owner.
	ErrForbidden = errors.New("forbidden")

	// ErrNoDocuments marks retrieval against a conversation with no
	// attached documents.
	ErrNoDocuments = errors.New("conversation has no documents")

	// ErrIndexBuild marks a failure while building a document's searchable
	// index. The ingestion is aborted; no partial document is persisted.
	ErrIndexBuild = errors.New("index build failed")

	// ErrUpstreamModel marks a failure of the embedding or generation
	// capability. Retryable by the caller; never retried internally.
	ErrUpstreamModel = errors.New("upstream model error")
)
