package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeUsersFixture(home))

	stdout, stderr, err := runAnicord(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "dev\n", stdout)

	stdout, stderr, err = runAnicord(t, binaryPath, home, "roster", "list", "--guild", "g1")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "u1\tBob\t10\tBobOnAniList")

	_, stderr, err = runAnicord(t, binaryPath, home, "roster", "unlink", "--guild", "g1", "--user", "u1")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err = runAnicord(t, binaryPath, home, "roster", "list", "--guild", "g1")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Empty(t, stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "anicord-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/anicord")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build anicord binary: %s", string(output))
	return binaryPath
}

func runAnicord(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "ANICORD_STORE_BACKEND=toml")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeUsersFixture(home string) error {
	configDir := filepath.Join(home, ".config", "anicord")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	users := `version = 1

[[guilds]]
id = "g1"

[[guilds.members]]
chat_user_id = "u1"
catalog_user_id = 10
catalog_user_name = "BobOnAniList"
display_name = "Bob"
`

	return os.WriteFile(filepath.Join(configDir, "users.toml"), []byte(users), 0o600)
}
