package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

// pdfStub is the smallest content that passes the PDF sniff.
var pdfStub = []byte("%PDF-1.4 stub content")

func newTestDocumentService(t *testing.T) (*DocumentService, *model.User, *model.User) {
	t.Helper()
	db := testDB(t)
	docRepo := repository.NewDocumentRepository(db)

	require.NoError(t, docRepo.CreateType(context.Background(), &model.DocumentType{
		Name:     "Aadhaar Card",
		IssuedBy: "UIDAI",
		Category: model.DocCategoryIdentity,
		IsActive: true,
	}))

	owner := &model.User{UserUID: util.GenerateUUID(), PhoneNumber: "+919876543210", Status: 1}
	other := &model.User{UserUID: util.GenerateUUID(), PhoneNumber: "+919876543211", Status: 1}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(other).Error)

	return NewDocumentService(docRepo), owner, other
}

func uploadReq(content []byte) *UploadDocumentRequest {
	return &UploadDocumentRequest{
		DocumentType: "Aadhaar Card",
		Content:      base64.StdEncoding.EncodeToString(content),
	}
}

func TestUploadAndDownloadRoundTrip(t *testing.T) {
	svc, owner, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, owner.ID, uploadReq(pdfStub))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.EqualValues(t, len(pdfStub), doc.Size)
	assert.Empty(t, doc.Content) // listings and upload responses carry no content

	got, err := svc.Download(ctx, owner.ID, doc.DocID)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(got.Content)
	require.NoError(t, err)
	assert.Equal(t, pdfStub, decoded)
	assert.Equal(t, "Aadhaar Card", got.DocumentType)
}

func TestUploadDetectsMimeFromMagicBytes(t *testing.T) {
	svc, owner, _ := newTestDocumentService(t)
	ctx := context.Background()

	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fake jpeg body")...)
	doc, err := svc.Upload(ctx, owner.ID, uploadReq(jpeg))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", doc.MimeType)

	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("fake png body")...)
	doc, err = svc.Upload(ctx, owner.ID, uploadReq(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.MimeType)
}

func TestUploadRejectsInvalidPayloads(t *testing.T) {
	svc, owner, _ := newTestDocumentService(t)
	ctx := context.Background()

	// Not base64 at all.
	_, err := svc.Upload(ctx, owner.ID, &UploadDocumentRequest{
		DocumentType: "Aadhaar Card",
		Content:      "not-base64!!!",
	})
	assert.ErrorIs(t, err, ErrInvalidDocument)

	// Valid base64 but no recognised magic bytes.
	_, err = svc.Upload(ctx, owner.ID, uploadReq([]byte("plain text file")))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	// Empty content.
	_, err = svc.Upload(ctx, owner.ID, uploadReq(nil))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	// Unknown document type.
	_, err = svc.Upload(ctx, owner.ID, &UploadDocumentRequest{
		DocumentType: "Voter ID",
		Content:      base64.StdEncoding.EncodeToString(pdfStub),
	})
	assert.ErrorIs(t, err, ErrDocTypeNotFound)
}

func TestForeignDocumentBehavesAsMissing(t *testing.T) {
	svc, owner, other := newTestDocumentService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, owner.ID, uploadReq(pdfStub))
	require.NoError(t, err)

	_, err = svc.Download(ctx, other.ID, doc.DocID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	err = svc.Delete(ctx, other.ID, doc.DocID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	// The owner still sees it.
	docs, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDeleteDocument(t *testing.T) {
	svc, owner, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, owner.ID, uploadReq(pdfStub))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner.ID, doc.DocID))
	assert.ErrorIs(t, svc.Delete(ctx, owner.ID, doc.DocID), ErrDocumentNotFound)

	docs, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
