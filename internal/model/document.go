// Package model defines the structs mapped to database tables.
package model

import (
	"time"
)

// Document category constants (document_types.category).
const (
	DocCategoryIdentity  = "identity"
	DocCategoryAddress   = "address"
	DocCategoryIncome    = "income"
	DocCategoryAge       = "age"
	DocCategoryEducation = "education"
	DocCategoryMedical   = "medical"
	DocCategoryOther     = "other"
)

// DocumentType is the catalogue of document kinds the portal accepts,
// e.g. "Aadhaar Card" issued by "UIDAI".
type DocumentType struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	IssuedBy string `gorm:"size:200;not null" json:"issued_by"`

	// Category groups types for scheme document checklists.
	Category string `gorm:"size:50;default:identity" json:"category"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides GORM's default pluralisation.
func (DocumentType) TableName() string {
	return "document_types"
}

// Document is an uploaded citizen document. The binary content lives in
// the same row; uploads arrive and downloads leave as base64 over JSON.
type Document struct {
	ID int64 `gorm:"primaryKey" json:"-"`

	// DocID is the public identifier (UUID).
	DocID string `gorm:"size:64;uniqueIndex;not null" json:"doc_id"`

	// UserID is the owning user. Every read and write is checked
	// against it; a foreign doc_id behaves as if it does not exist.
	UserID int64 `gorm:"index;not null" json:"-"`

	// DocumentTypeID references document_types.id.
	DocumentTypeID int64 `gorm:"index;not null" json:"document_type_id"`

	// DocNumber is the number printed on the document itself.
	DocNumber string `gorm:"size:50" json:"doc_number"`

	IssueDate  *time.Time `json:"issue_date,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`

	// MimeType is one of application/pdf, image/jpeg, image/png,
	// validated against the file's magic bytes at upload time.
	MimeType string `gorm:"size:100;not null" json:"mime_type"`

	// Size of the decoded content in bytes.
	Size int64 `gorm:"not null" json:"size"`

	// Content is the raw decoded file. json:"-" keeps it out of list
	// responses; the download endpoint re-encodes it explicitly.
	Content []byte `gorm:"type:longblob" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User         *User         `gorm:"foreignKey:UserID" json:"-"`
	DocumentType *DocumentType `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
}

// TableName overrides GORM's default pluralisation.
func (Document) TableName() string {
	return "documents"
}
