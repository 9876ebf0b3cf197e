package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(key, "")
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(block)

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
		auth    int
	}{
		{"password", Config{User: "core", Password: "pw"}, "", 1},
		{"key and password", Config{User: "core", Password: "pw", PrivateKey: pemKey}, "", 2},
		{"missing user", Config{Password: "pw"}, "config user cannot be empty", 0},
		{"missing secret", Config{User: "core"}, "config requires a password or a private key", 0},
		{"invalid key", Config{User: "core", PrivateKey: []byte("junk")}, "failed to parse private key", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := NewClient(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultPort, c.config.Port)
			assert.Equal(t, defaultDialTimeout, c.config.DialTimeout)
			assert.Equal(t, defaultRetryDelay, c.config.RetryDelay)
			assert.Zero(t, c.config.MaxRetries)
			assert.NotNil(t, c.config.HostKeyCallback)
			assert.Len(t, c.auth, tt.auth)
		})
	}
}

func newTestClient(t *testing.T, srv *testServer, password string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Port:        srv.port(),
		User:        testUser,
		Password:    password,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestRun_Success(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := newTestClient(t, srv, testPassword)

	res, err := c.Run(context.Background(), "127.0.0.1", "hostname")
	require.NoError(t, err)
	assert.Equal(t, "prod-etcd-01\n", res.Output)
	assert.Empty(t, res.ErrorOutput)
	assert.Equal(t, []string{"hostname"}, srv.received())
}

func TestRun_NonZeroExitKeepsOutput(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := newTestClient(t, srv, testPassword)

	res, err := c.Run(context.Background(), "127.0.0.1", "false")
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitStatus)
	assert.Equal(t, "false", cmdErr.Command)
	assert.Equal(t, "partial\n", res.Output)
	assert.Equal(t, "failed\n", res.ErrorOutput)
}

func TestRun_AuthFailureIsConnectError(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := newTestClient(t, srv, "wrong")

	_, err := c.Run(context.Background(), "127.0.0.1", "hostname")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	assert.Empty(t, srv.received())
}

func TestRun_RefusedConnection(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	var (
		mu    sync.Mutex
		lines []string
	)
	log := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	c, err := NewClient(Config{
		Port:       port,
		User:       testUser,
		Password:   testPassword,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Log:        log,
	})
	require.NoError(t, err)

	_, err = c.Run(context.Background(), "127.0.0.1", "hostname")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	assert.Contains(t, err.Error(), "after 3 attempts")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg"="retrying ssh connection"`)
	assert.Contains(t, lines[1], `"attempt"=2`)
}

func TestRun_ContextDeadline(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := newTestClient(t, srv, testPassword)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := c.Run(ctx, "127.0.0.1", "hang")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
