package ports

import (
	"context"
	"errors"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialReadOnly = errors.New("credential store is read-only")
)

// CredentialStore holds secrets such as the Discord bot token. Get returns an
// error wrapping ErrCredentialNotFound when the key has no value.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
