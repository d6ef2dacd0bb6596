package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	envstore "github.com/bnema/anicord/internal/adapters/secrets/env"
	filestore "github.com/bnema/anicord/internal/adapters/secrets/file"
	passstore "github.com/bnema/anicord/internal/adapters/secrets/pass"
	"github.com/bnema/anicord/internal/ports"
)

// Store consults its backends in order. Reads return the first hit, writes
// land in the first backend that accepts them and deletes reach every
// writable backend.
type Store struct {
	stores []ports.CredentialStore
}

var _ ports.CredentialStore = (*Store)(nil)

var (
	errNoStores = errors.New("no credential stores configured")
	errNilStore = errors.New("credential store is nil")
)

func NewStore(stores ...ports.CredentialStore) *Store {
	store, err := NewStoreChecked(stores...)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(stores ...ports.CredentialStore) (*Store, error) {
	if len(stores) == 0 {
		return nil, errNoStores
	}
	for i, store := range stores {
		if store == nil {
			return nil, fmt.Errorf("backend %d: %w", i, errNilStore)
		}
	}

	return &Store{stores: append([]ports.CredentialStore(nil), stores...)}, nil
}

// DefaultConfig describes the bot token chain: an environment variable, then
// pass, then one file per key below FileRoot.
type DefaultConfig struct {
	Key    string
	EnvVar string
	// PassDir selects a dedicated password store; empty uses the user's.
	PassDir  string
	FileRoot string
	// LegacyPath is a read-only single-value token file, ignored when empty.
	LegacyPath string
}

func NewDefault(cfg DefaultConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, errors.New("credential key is required")
	}

	var fileOpts []filestore.Option
	if cfg.LegacyPath != "" {
		fileOpts = append(fileOpts, filestore.WithLegacyPath(cfg.Key, cfg.LegacyPath))
	}

	var stores []ports.CredentialStore
	if cfg.EnvVar != "" {
		stores = append(stores, envstore.NewStore(map[string]string{cfg.Key: cfg.EnvVar}))
	}
	stores = append(stores,
		passstore.NewStore(passstore.WithStoreDir(cfg.PassDir)),
		filestore.NewStore(cfg.FileRoot, fileOpts...),
	)
	return NewStoreChecked(stores...)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for i, store := range s.stores {
		value, err := store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if shouldSkipFallback(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("backend %d get failed: %w", i, err))
	}

	return "", errors.Join(errs...)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for i, store := range s.stores {
		err := store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if shouldSkipFallback(err) {
			return err
		}
		if errors.Is(err, ports.ErrCredentialReadOnly) {
			continue
		}
		errs = append(errs, fmt.Errorf("backend %d put failed: %w", i, err))
	}

	if len(errs) == 0 {
		return fmt.Errorf("put %q: %w", key, ports.ErrCredentialReadOnly)
	}
	return errors.Join(errs...)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	deleted := false
	for i, store := range s.stores {
		err := store.Delete(ctx, key)
		if err == nil {
			deleted = true
			continue
		}
		if shouldSkipFallback(err) {
			return err
		}
		if errors.Is(err, ports.ErrCredentialReadOnly) {
			continue
		}
		errs = append(errs, fmt.Errorf("backend %d delete failed: %w", i, err))
	}

	// A backend that is unavailable does not hold the key either.
	if deleted {
		return nil
	}
	return errors.Join(errs...)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
