package handler

import (
	"io"
	"net/http"
	"strconv"

	"doc-chat-go/internal/middleware"
	"doc-chat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadHandler accepts document uploads and lists attached documents.
type UploadHandler struct {
	documentService service.DocumentService
}

func NewUploadHandler(documentService service.DocumentService) *UploadHandler {
	return &UploadHandler{documentService: documentService}
}

// Upload handles POST /api/documents. The multipart field "file" carries
// the document; the optional form field "conversationId" targets an
// existing conversation, otherwise a new one is created.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "missing file field"})
		return
	}

	var targetConversationID *uint
	if raw := c.PostForm("conversationId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid conversationId"})
			return
		}
		cid := uint(id)
		targetConversationID = &cid
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.documentService.Ingest(c.Request.Context(), raw, fileHeader.Filename, targetConversationID, middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// ListDocuments handles GET /api/conversations/:id/documents.
func (h *UploadHandler) ListDocuments(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	docs, err := h.documentService.ListDocuments(middleware.Principal(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, docs)
}

// conversationParam parses the :id path segment, answering the request
// itself on malformed input.
func conversationParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid conversation id"})
		return 0, false
	}
	return uint(id), true
}
