package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bnema/anicord/internal/ports"
)

var (
	// ErrUnavailable means pass cannot serve any key: the binary is missing or
	// the password store was never initialised.
	ErrUnavailable = errors.New("pass command unavailable")
	// ErrLocked means the entry exists but gpg could not decrypt it, usually
	// because no agent or pinentry is reachable from the bot process.
	ErrLocked = errors.New("pass entry could not be decrypted")
)

// stderrErrors maps pass and gpg diagnostics to errors the credential chain
// understands. Order matters: the first matching marker wins.
var stderrErrors = []struct {
	marker string
	err    error
}{
	{marker: "is not in the password store", err: ports.ErrCredentialNotFound},
	{marker: "password store is empty", err: ErrUnavailable},
	{marker: `Try "pass init"`, err: ErrUnavailable},
	{marker: "decryption failed", err: ErrLocked},
	{marker: "No secret key", err: ErrLocked},
}

type invocation struct {
	env   []string
	input string
	args  []string
}

type runner func(ctx context.Context, inv invocation) (stdout string, stderr string, err error)

// Store keeps the bot's secrets in pass(1). Only the first line of an entry is
// the secret; later lines are pass metadata and are ignored.
type Store struct {
	run runner
	env []string
}

type Option func(*Store)

// WithStoreDir points pass at a dedicated password store instead of the
// user's default one.
func WithStoreDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.env = append(s.env, "PASSWORD_STORE_DIR="+dir)
		}
	}
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(opts ...Option) *Store {
	s := &Store{run: runPass}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	stdout, err := s.exec(ctx, "get", key, "", "show", key)
	if err != nil {
		return "", err
	}

	secret, _, _ := strings.Cut(stdout, "\n")
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("pass get %q: empty entry: %w", key, ports.ErrCredentialNotFound)
	}
	return secret, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("pass put %q: value must be a single non-empty line", key)
	}

	_, err := s.exec(ctx, "put", key, value+"\n", "insert", "--multiline", "--force", key)
	return err
}

// Delete removes key. A key pass never held reports ErrCredentialNotFound so
// the chain can tell it apart from a failed removal.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.exec(ctx, "delete", key, "", "rm", "--force", key)
	return err
}

func (s *Store) exec(ctx context.Context, op, key, input string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, invocation{env: s.env, input: input, args: args})
	if err == nil {
		return stdout, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return "", classify(op, key, err, stderr)
}

func classify(op, key string, err error, stderr string) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	for _, known := range stderrErrors {
		if strings.Contains(stderr, known.marker) {
			return fmt.Errorf("pass %s %q: %w: %s", op, key, known.err, stderr)
		}
	}
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	}
	return fmt.Errorf("pass %s %q: %w: %s", op, key, err, stderr)
}

func runPass(ctx context.Context, inv invocation) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, inv.args...)
	if len(inv.env) > 0 {
		cmd.Env = append(os.Environ(), inv.env...)
	}
	if inv.input != "" {
		cmd.Stdin = strings.NewReader(inv.input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}
