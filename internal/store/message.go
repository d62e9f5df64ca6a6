package store

import (
	"context"
	"errors"
	"fmt"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

const messageResource = "Message"

type MessageRepository struct {
	client *backend.Client
}

func NewMessageRepository(client *backend.Client) *MessageRepository {
	return &MessageRepository{client: client}
}

// Inbox returns the messages addressed to a user, newest first as the
// backend orders them.
func (r *MessageRepository) Inbox(ctx context.Context, userID string) ([]*types.Message, error) {
	var msgs []*types.Message
	err := r.client.Get(ctx, fmt.Sprintf("%s/user/%s", messageResource, userID), nil, &msgs)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return []*types.Message{}, nil
		}
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return msgs, nil
}

func (r *MessageRepository) Send(ctx context.Context, msg *types.NewMessage) error {
	if err := r.client.Post(ctx, messageResource, nil, msg, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
