// Package store holds the repositories the portal reads and writes through.
// Every repository is a thin typed layer over one backend resource.
package store

import (
	"context"
	"errors"
	"fmt"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

const personalInfoResource = "StudentPersonalInfo"

// ErrNoPersonalInfo means the user has not completed the first wizard step.
var ErrNoPersonalInfo = errors.New("store: no personal information on file")

type PersonalInfoRepository struct {
	client *backend.Client
}

func NewPersonalInfoRepository(client *backend.Client) *PersonalInfoRepository {
	return &PersonalInfoRepository{client: client}
}

func (r *PersonalInfoRepository) ByUserID(ctx context.Context, userID string) (*types.PersonalInformation, error) {
	var info types.PersonalInformation
	err := r.client.Get(ctx, fmt.Sprintf("%s/user/%s", personalInfoResource, userID), nil, &info)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrNoPersonalInfo
		}
		return nil, fmt.Errorf("failed to fetch personal information: %w", err)
	}

	return &info, nil
}

// Create stores a new record and fills in the id the backend assigned.
func (r *PersonalInfoRepository) Create(ctx context.Context, info *types.PersonalInformation) error {
	var created types.PersonalInformation
	err := r.client.Post(ctx, personalInfoResource, nil, info, &created)
	if err != nil {
		return fmt.Errorf("failed to create personal information: %w", err)
	}

	info.ID = created.ID
	return nil
}

func (r *PersonalInfoRepository) Update(ctx context.Context, info *types.PersonalInformation) error {
	if info.ID == 0 {
		return ErrNoPersonalInfo
	}

	err := r.client.Put(ctx, fmt.Sprintf("%s/%d", personalInfoResource, info.ID), nil, info, nil)
	if err != nil {
		return fmt.Errorf("failed to update personal information: %w", err)
	}

	return nil
}
