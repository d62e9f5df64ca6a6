package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

// DocumentRepository talks to the per-type document endpoints. The document
// type is the resource name.
type DocumentRepository struct {
	client *backend.Client
}

func NewDocumentRepository(client *backend.Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

// ListDocuments returns the records of one document type for a student.
func (r *DocumentRepository) ListDocuments(ctx context.Context, docType types.DocumentType, personalInfoID int) ([]types.DocumentRecord, error) {
	var docs []types.DocumentRecord
	err := r.client.Get(ctx, string(docType), ownerQuery(personalInfoID), &docs)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return []types.DocumentRecord{}, nil
		}
		return nil, fmt.Errorf("failed to fetch %s documents: %w", docType, err)
	}

	return docs, nil
}

// UploadDocument posts the file as multipart form data.
func (r *DocumentRepository) UploadDocument(ctx context.Context, docType types.DocumentType, personalInfoID int, file backend.FilePart, progress backend.ProgressFunc) (*types.DocumentRecord, error) {
	fields := map[string]string{
		"StudentPersonalInformationId": strconv.Itoa(personalInfoID),
	}

	var doc types.DocumentRecord
	err := r.client.Upload(ctx, string(docType), fields, file, progress, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", docType, err)
	}

	return &doc, nil
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, docType types.DocumentType, docID int) error {
	err := r.client.Delete(ctx, fmt.Sprintf("%s/%d", docType, docID))
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", docType, docID, err)
	}

	return nil
}

type documentStatusUpdate struct {
	Status types.DocumentStatus `json:"status"`
}

// UpdateDocumentStatus records an admin review decision on one document.
func (r *DocumentRepository) UpdateDocumentStatus(ctx context.Context, docType types.DocumentType, docID int, to types.DocumentStatus) error {
	err := r.client.Put(ctx, fmt.Sprintf("%s/%d/status", docType, docID), nil, documentStatusUpdate{Status: to}, nil)
	if err != nil {
		return fmt.Errorf("failed to update %s %d status: %w", docType, docID, err)
	}

	return nil
}
