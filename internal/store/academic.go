package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

const academicResource = "AcademicInformation"

var ErrNoAcademicRecord = errors.New("store: no academic information on file")

type AcademicRepository struct {
	client *backend.Client
}

func NewAcademicRepository(client *backend.Client) *AcademicRepository {
	return &AcademicRepository{client: client}
}

func ownerQuery(personalInfoID int) url.Values {
	return url.Values{"StudentPersonalInformationId": []string{strconv.Itoa(personalInfoID)}}
}

func (r *AcademicRepository) ByPersonalInfoID(ctx context.Context, personalInfoID int) (*types.AcademicApplication, error) {
	var app types.AcademicApplication
	err := r.client.Get(ctx, academicResource, ownerQuery(personalInfoID), &app)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrNoAcademicRecord
		}
		return nil, fmt.Errorf("failed to fetch academic information: %w", err)
	}

	return &app, nil
}

// Create posts the record. A backend that already holds one reports it as
// a conflict; that is returned as existed=true with no error.
func (r *AcademicRepository) Create(ctx context.Context, input types.AcademicApplicationInput) (app *types.AcademicApplication, existed bool, err error) {
	var created types.AcademicApplication
	err = r.client.Post(ctx, academicResource, nil, input, &created)
	if err != nil {
		if errors.Is(err, backend.ErrAlreadyExists) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to create academic information: %w", err)
	}

	return &created, false, nil
}

func (r *AcademicRepository) Update(ctx context.Context, id int, input types.AcademicApplicationInput) error {
	err := r.client.Put(ctx, fmt.Sprintf("%s/%d", academicResource, id), nil, input, nil)
	if err != nil {
		return fmt.Errorf("failed to update academic information %d: %w", id, err)
	}

	return nil
}

// Delete removes the record. backend.ErrNotFound stays matchable so callers
// can treat a missing record as already deleted.
func (r *AcademicRepository) Delete(ctx context.Context, id int) error {
	err := r.client.Delete(ctx, fmt.Sprintf("%s/%d", academicResource, id))
	if err != nil {
		return fmt.Errorf("failed to delete academic information %d: %w", id, err)
	}

	return nil
}
