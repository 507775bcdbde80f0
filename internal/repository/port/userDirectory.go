package port

import (
	"context"
	"errors"
)

// User is the slim identity view the chat context needs: enough to stamp
// outbound frames with a display name. Accounts are owned by the wider
// application, never by a conversation.
type User struct {
	ID       string
	Username string
}

var (
	ErrUserNotFound = errors.New("directory: user not found")
	ErrItemNotFound = errors.New("directory: item not found")
)

// UserDirectory resolves user identities.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*User, error)
}

// ItemDirectory resolves item ownership. Used only by the conversation
// creation flow, never on the messaging path.
type ItemDirectory interface {
	GetItemOwner(ctx context.Context, itemID string) (ownerID string, err error)
}
