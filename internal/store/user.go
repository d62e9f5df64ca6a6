package store

import (
	"context"
	"errors"
	"fmt"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

const userResource = "User"

type UserRepository struct {
	client *backend.Client
}

func NewUserRepository(client *backend.Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) Users(ctx context.Context) ([]*types.User, error) {
	var users []*types.User
	err := r.client.Get(ctx, userResource, nil, &users)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return []*types.User{}, nil
		}
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	err := r.client.Delete(ctx, fmt.Sprintf("%s/%s", userResource, userID))
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}

	return nil
}
