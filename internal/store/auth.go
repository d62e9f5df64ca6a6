package store

import (
	"context"
	"errors"
	"fmt"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

var ErrInvalidCredentials = errors.New("store: invalid email or password")

type AuthRepository struct {
	client *backend.Client
}

func NewAuthRepository(client *backend.Client) *AuthRepository {
	return &AuthRepository{client: client}
}

// Login exchanges credentials for a backend-issued token.
func (r *AuthRepository) Login(ctx context.Context, creds types.Credentials) (*types.AuthToken, error) {
	var token types.AuthToken
	err := r.client.Post(ctx, "Auth/login", nil, creds, &token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	if token.Token == "" {
		return nil, ErrInvalidCredentials
	}

	return &token, nil
}

func (r *AuthRepository) Register(ctx context.Context, reg *types.Registration) error {
	if err := r.client.Post(ctx, "Auth/register", nil, reg, nil); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}

	return nil
}
