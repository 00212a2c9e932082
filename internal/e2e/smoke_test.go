package e2e

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	binaryPath := buildBinary(t)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer smoke-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"code":"unauthorized","message":"Unauthorized"}}`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"link_1","domain":"dub.sh","key":"smoke","url":"https://example.com","shortLink":"https://dub.sh/smoke"}]`)
	}))
	t.Cleanup(api.Close)

	home := t.TempDir()

	_, _, err := runDub(t, binaryPath, home, api.URL, "whoami")
	assert.Equal(t, 3, exitCode(t, err))

	_, _, err = runDub(t, binaryPath, home, api.URL, "add")
	assert.Equal(t, 2, exitCode(t, err))

	require.NoError(t, writeCredentialsFixture(home))
	stdout, stderr, err := runDub(t, binaryPath, home, api.URL, "list", "--format", "plain")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "https://dub.sh/smoke\n", stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "dub-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dub")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build dub binary: %s", string(output))
	return binaryPath
}

func runDub(t *testing.T, binaryPath, home, apiURL string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"DUB_API_BASE_URL="+apiURL,
		"DUB_CREDENTIALS_BACKEND=file",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	return exitErr.ExitCode()
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeCredentialsFixture(home string) error {
	configDir := filepath.Join(home, ".config", "dubco")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	credentials := `{"access_token":"smoke-token","refresh_token":"smoke-refresh","token_type":"Bearer","expires_at":"2099-01-01T00:00:00Z"}`
	return os.WriteFile(filepath.Join(configDir, "credentials.json"), []byte(credentials), 0o600)
}
