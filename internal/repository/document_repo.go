// Package repository provides the data access layer.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"agsa-server/internal/model"
)

// DocumentRepository handles all database operations for documents and
// document types.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a DocumentRepository.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document, content included.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByDocID returns the document with the given public id scoped to
// one owner, or nil. The owner filter is part of the query so a foreign
// doc_id is indistinguishable from a missing one.
func (r *DocumentRepository) GetByDocID(ctx context.Context, userID int64, docID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("doc_id = ? AND user_id = ?", docID, userID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// ListByUser returns the user's document metadata, newest first.
// Content is excluded; it is only loaded for downloads.
func (r *DocumentRepository) ListByUser(ctx context.Context, userID int64) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Omit("content").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// Delete removes a document scoped to its owner. Returns the number of
// rows removed so the caller can map zero to not-found.
func (r *DocumentRepository) Delete(ctx context.Context, userID int64, docID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("doc_id = ? AND user_id = ?", docID, userID).
		Delete(&model.Document{})
	return result.RowsAffected, result.Error
}

// GetTypeByID returns a document type, or nil.
func (r *DocumentRepository) GetTypeByID(ctx context.Context, id int64) (*model.DocumentType, error) {
	var docType model.DocumentType
	err := r.db.WithContext(ctx).First(&docType, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &docType, nil
}

// GetTypeByName returns a document type by its unique name, or nil.
func (r *DocumentRepository) GetTypeByName(ctx context.Context, name string) (*model.DocumentType, error) {
	var docType model.DocumentType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&docType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &docType, nil
}

// ListTypes returns the active document types ordered by name.
func (r *DocumentRepository) ListTypes(ctx context.Context) ([]model.DocumentType, error) {
	var types []model.DocumentType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

// CreateType inserts a new document type.
func (r *DocumentRepository) CreateType(ctx context.Context, docType *model.DocumentType) error {
	return r.db.WithContext(ctx).Create(docType).Error
}
