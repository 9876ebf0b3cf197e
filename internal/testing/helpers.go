package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/corefleet/internal/platform/ssh"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// MockRunner is a testify mock of the remote command runner.
type MockRunner struct {
	mock.Mock
}

// Run returns the configured result for host and command.
func (m *MockRunner) Run(ctx context.Context, host, command string) (ssh.Result, error) {
	args := m.Called(ctx, host, command)
	return args.Get(0).(ssh.Result), args.Error(1)
}

// WithOutput configures the mock to answer command on host with output.
func (m *MockRunner) WithOutput(host, command, output string) *MockRunner {
	m.On("Run", mock.Anything, host, command).Return(ssh.Result{Output: output}, nil)
	return m
}
