package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"time"

	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

// Document errors returned to the handler layer.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidDocument  = errors.New("invalid document payload")
	ErrDocTypeNotFound  = errors.New("document type not found")
)

// maxDocumentSize bounds a single upload after base64 decoding.
const maxDocumentSize = 5 * 1024 * 1024

// DocumentService handles citizen document upload, listing and
// retrieval. Content is stored in the database and only ever returned
// to its owner.
type DocumentService struct {
	docRepo *repository.DocumentRepository
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(docRepo *repository.DocumentRepository) *DocumentService {
	return &DocumentService{docRepo: docRepo}
}

// UploadDocumentRequest carries one base64-encoded document.
type UploadDocumentRequest struct {
	DocumentType string  `json:"document_type" binding:"required"`
	DocNumber    *string `json:"doc_number"`
	IssueDate    *string `json:"issue_date"`  // YYYY-MM-DD
	ExpiryDate   *string `json:"expiry_date"` // YYYY-MM-DD
	Content      string  `json:"content" binding:"required"`
}

// DocumentResponse is the public view of a document. Content is only
// present on a direct download.
type DocumentResponse struct {
	DocID        string  `json:"doc_id"`
	DocumentType string  `json:"document_type"`
	Category     string  `json:"category,omitempty"`
	DocNumber    string  `json:"doc_number,omitempty"`
	IssueDate    *string `json:"issue_date,omitempty"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
	IsVerified   bool    `json:"is_verified"`
	MimeType     string  `json:"mime_type"`
	Size         int64   `json:"size"`
	UploadedAt   string  `json:"uploaded_at"`
	Content      string  `json:"content,omitempty"` // base64
}

func toDocumentResponse(doc *model.Document) *DocumentResponse {
	resp := &DocumentResponse{
		DocID:      doc.DocID,
		DocNumber:  doc.DocNumber,
		IsVerified: doc.IsVerified,
		MimeType:   doc.MimeType,
		Size:       doc.Size,
		UploadedAt: doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.DocumentType != nil {
		resp.DocumentType = doc.DocumentType.Name
		resp.Category = doc.DocumentType.Category
	}
	if doc.IssueDate != nil {
		resp.IssueDate = util.StringPtr(doc.IssueDate.Format("2006-01-02"))
	}
	if doc.ExpiryDate != nil {
		resp.ExpiryDate = util.StringPtr(doc.ExpiryDate.Format("2006-01-02"))
	}
	return resp
}

// detectMimeType sniffs the decoded content. Only PDF, JPEG and PNG
// are accepted.
func detectMimeType(content []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(content, []byte("%PDF")):
		return "application/pdf", true
	case bytes.HasPrefix(content, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg", true
	case bytes.HasPrefix(content, []byte{0x89, 0x50, 0x4E, 0x47}):
		return "image/png", true
	default:
		return "", false
	}
}

// Upload decodes and validates the payload, then stores the document.
// The declared type must exist; the content type is taken from the
// bytes themselves, never from the client.
func (s *DocumentService) Upload(ctx context.Context, userID int64, req *UploadDocumentRequest) (*DocumentResponse, error) {
	docType, err := s.docRepo.GetTypeByName(ctx, req.DocumentType)
	if err != nil {
		return nil, err
	}
	if docType == nil {
		return nil, ErrDocTypeNotFound
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		return nil, ErrInvalidDocument
	}
	if len(content) == 0 || len(content) > maxDocumentSize {
		return nil, ErrInvalidDocument
	}
	mimeType, ok := detectMimeType(content)
	if !ok {
		return nil, ErrInvalidDocument
	}

	doc := &model.Document{
		DocID:          util.GenerateUUID(),
		UserID:         userID,
		DocumentTypeID: docType.ID,
		MimeType:       mimeType,
		Size:           int64(len(content)),
		Content:        content,
	}
	if req.DocNumber != nil {
		doc.DocNumber = *req.DocNumber
	}
	if req.IssueDate != nil {
		d, err := time.Parse("2006-01-02", *req.IssueDate)
		if err != nil {
			return nil, ErrInvalidDocument
		}
		doc.IssueDate = &d
	}
	if req.ExpiryDate != nil {
		d, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return nil, ErrInvalidDocument
		}
		doc.ExpiryDate = &d
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	doc.DocumentType = docType
	return toDocumentResponse(doc), nil
}

// List returns the user's documents, newest first, without content.
func (s *DocumentService) List(ctx context.Context, userID int64) ([]*DocumentResponse, error) {
	docs, err := s.docRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]*DocumentResponse, 0, len(docs))
	for i := range docs {
		result = append(result, toDocumentResponse(&docs[i]))
	}
	return result, nil
}

// Download returns one document with its content re-encoded as base64.
// A document owned by someone else is reported as missing.
func (s *DocumentService) Download(ctx context.Context, userID int64, docID string) (*DocumentResponse, error) {
	doc, err := s.docRepo.GetByDocID(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if doc.DocumentTypeID != 0 && doc.DocumentType == nil {
		docType, err := s.docRepo.GetTypeByID(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		doc.DocumentType = docType
	}

	resp := toDocumentResponse(doc)
	resp.Content = base64.StdEncoding.EncodeToString(doc.Content)
	return resp, nil
}

// Delete removes a document. Ownership is enforced in the query, so a
// foreign doc id deletes nothing and reports not found.
func (s *DocumentService) Delete(ctx context.Context, userID int64, docID string) error {
	affected, err := s.docRepo.Delete(ctx, userID, docID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// ListTypes returns the accepted document types.
func (s *DocumentService) ListTypes(ctx context.Context) ([]model.DocumentType, error) {
	return s.docRepo.ListTypes(ctx)
}
