package store

import (
	"context"
	"errors"
	"fmt"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

const applicationResource = "StudentApplication"

type ApplicationRepository struct {
	client *backend.Client
}

func NewApplicationRepository(client *backend.Client) *ApplicationRepository {
	return &ApplicationRepository{client: client}
}

// State returns the application status for a student. A student without an
// application yields a nil status and no error.
func (r *ApplicationRepository) State(ctx context.Context, personalInfoID int) (*types.ApplicationState, error) {
	var state types.ApplicationState
	err := r.client.Get(ctx, applicationResource+"/application", ownerQuery(personalInfoID), &state)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return &types.ApplicationState{PersonalInformationID: personalInfoID}, nil
		}
		return nil, fmt.Errorf("failed to fetch application status: %w", err)
	}

	return &state, nil
}

// Submit hands the application in for review.
func (r *ApplicationRepository) Submit(ctx context.Context, personalInfoID int) (*types.ApplicationState, error) {
	var state types.ApplicationState
	err := r.client.Post(ctx, applicationResource+"/application", ownerQuery(personalInfoID), nil, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}

	return &state, nil
}

func (r *ApplicationRepository) All(ctx context.Context) ([]types.ApplicationSummary, error) {
	var out []types.ApplicationSummary
	err := r.client.Get(ctx, applicationResource, nil, &out)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return []types.ApplicationSummary{}, nil
		}
		return nil, fmt.Errorf("failed to fetch applications: %w", err)
	}

	return out, nil
}

type statusUpdate struct {
	ApplicationStatus types.ApplicationStatus `json:"applicationStatus"`
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int, to types.ApplicationStatus) error {
	err := r.client.Put(ctx, fmt.Sprintf("%s/%d/status", applicationResource, id), nil, statusUpdate{ApplicationStatus: to}, nil)
	if err != nil {
		return fmt.Errorf("failed to update application %d status: %w", id, err)
	}

	return nil
}
