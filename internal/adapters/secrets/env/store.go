package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/anicord/internal/ports"
)

// Store resolves secrets from environment variables. It is read-only.
type Store struct {
	vars   map[string]string
	lookup func(string) (string, bool)
}

var _ ports.CredentialStore = (*Store)(nil)

// NewStore maps credential keys to environment variable names.
func NewStore(vars map[string]string) *Store {
	copied := make(map[string]string, len(vars))
	for key, name := range vars {
		copied[key] = name
	}
	return &Store{vars: copied, lookup: os.LookupEnv}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, ok := s.vars[key]
	if !ok {
		return "", fmt.Errorf("env secret %q has no variable: %w", key, ports.ErrCredentialNotFound)
	}

	value, ok := s.lookup(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", fmt.Errorf("env secret %q: %s unset: %w", key, name, ports.ErrCredentialNotFound)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("env secret %q: %w", key, ports.ErrCredentialReadOnly)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("env secret %q: %w", key, ports.ErrCredentialReadOnly)
}
