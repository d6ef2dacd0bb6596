package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/anicord/internal/ports"
)

const (
	storeDirMode  = 0o700
	secretFileMod = 0o600
)

// Store keeps one secret per file below root. Keys are slash separated
// relative paths.
type Store struct {
	root   string
	legacy map[string]string
	mu     sync.RWMutex
}

type Option func(*Store)

// WithLegacyPath makes Get fall back to a single-value file (for example a
// ".token" next to the binary) when key has no file under root. The legacy
// file is never written or removed.
func WithLegacyPath(key, path string) Option {
	return func(s *Store) {
		s.legacy[strings.TrimSpace(key)] = path
	}
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(root string, opts ...Option) *Store {
	s := &Store{root: filepath.Clean(root), legacy: map[string]string{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create file secret directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(value), secretFileMod); err != nil {
		return fmt.Errorf("write file secret %q: %w", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read file secret %q: %w", key, err)
	}

	legacyPath, ok := s.legacy[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("file secret %q: %w: %w", key, ports.ErrCredentialNotFound, err)
	}

	data, legacyErr := os.ReadFile(legacyPath)
	if legacyErr != nil {
		if errors.Is(legacyErr, os.ErrNotExist) {
			return "", fmt.Errorf("file secret %q: %w: %w", key, ports.ErrCredentialNotFound, legacyErr)
		}
		return "", fmt.Errorf("read legacy secret file %s: %w", legacyPath, legacyErr)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("legacy secret file %s is empty: %w", legacyPath, ports.ErrCredentialNotFound)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file secret %q: %w", key, err)
	}

	return nil
}

func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("secret key is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid secret key %q", key)
	}

	return filepath.Join(s.root, cleaned), nil
}
