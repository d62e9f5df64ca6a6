package store

import (
	"context"
	"fmt"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

type FormsRepository struct {
	client *backend.Client
}

func NewFormsRepository(client *backend.Client) *FormsRepository {
	return &FormsRepository{client: client}
}

// SubmitContact forwards the marketing site's contact form.
func (r *FormsRepository) SubmitContact(ctx context.Context, req *types.ContactRequest) error {
	if err := r.client.Post(ctx, "ContactUs", nil, req, nil); err != nil {
		return fmt.Errorf("failed to submit contact request: %w", err)
	}

	return nil
}
