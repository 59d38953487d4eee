package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/middleware"
	"agsa-server/internal/service"
	"agsa-server/pkg/response"
)

// DocumentHandler handles citizen document endpoints.
type DocumentHandler struct {
	docService *service.DocumentService
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(docService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload stores one base64-encoded document.
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocTypeNotFound):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrInvalidDocument):
			response.ErrorWithCode(c, 400, response.CodeDocumentInvalid, err.Error())
		default:
			internalError(c, err)
		}
		return
	}
	response.Created(c, doc)
}

// List returns the citizen's documents, content omitted.
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	docs, err := h.docService.List(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs, "total": len(docs)})
}

// Download returns one document with base64 content.
// @Router /api/v1/documents/:doc_id [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	userID := middleware.GetUserID(c)
	docID := c.Param("doc_id")

	doc, err := h.docService.Download(c.Request.Context(), userID, docID)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			response.ErrorWithCode(c, 404, response.CodeDocumentNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, doc)
}

// Delete removes one document.
// @Router /api/v1/documents/:doc_id [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	docID := c.Param("doc_id")

	if err := h.docService.Delete(c.Request.Context(), userID, docID); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			response.ErrorWithCode(c, 404, response.CodeDocumentNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, gin.H{"message": "document deleted"})
}

// ListTypes returns the accepted document types.
// @Router /api/v1/documents/types [get]
func (h *DocumentHandler) ListTypes(c *gin.Context) {
	types, err := h.docService.ListTypes(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, gin.H{"document_types": types})
}
