package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/corefleet/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

var (
	// ErrConnect is returned when the TCP dial or SSH handshake fails.
	ErrConnect = errors.New("ssh connection failed")
	// ErrTimeout is returned when the context ends before the command does.
	ErrTimeout = errors.New("ssh command timed out")
)

// CommandError reports a command that exited with a non-zero status.
type CommandError struct {
	Host       string
	Command    string
	ExitStatus int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q on %s exited with status %d", e.Command, e.Host, e.ExitStatus)
}

// Config holds SSH client configuration.
type Config struct {
	Port     int
	User     string
	Password string
	// PrivateKey, when set, is offered before the password.
	PrivateKey []byte

	// DialTimeout bounds the TCP connect and handshake.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// MaxRetries is the number of extra dial attempts. Zero disables retries.
	MaxRetries int

	// RetryDelay is the initial delay between dial attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used. Freshly deployed VMs
	// generate their host keys on first boot.
	HostKeyCallback ssh.HostKeyCallback

	// Log receives dial retries at V(1). If unset, nothing is logged.
	Log logr.Logger
}

// Result holds the captured output streams of a command.
type Result struct {
	Output      string
	ErrorOutput string
}

// Client executes commands on remote hosts via SSH.
type Client struct {
	config Config
	auth   []ssh.AuthMethod
}

// NewClient validates cfg and applies defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if cfg.Password == "" && len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config requires a password or a private key")
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Log.GetSink() == nil {
		cfg.Log = logr.Discard()
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Host keys of new VMs are unknown
	}

	var auth []ssh.AuthMethod
	if len(cfg.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}

	return &Client{config: cfg, auth: auth}, nil
}

// Run executes command on host. The output of a command that exits non-zero
// is returned together with a *CommandError.
func (c *Client) Run(ctx context.Context, host, command string) (Result, error) {
	client, err := c.connect(ctx, host)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to open session on %s: %w", ErrConnect, host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = client.Close()
		<-done
		return Result{Output: stdout.String(), ErrorOutput: stderr.String()},
			fmt.Errorf("%w: %s on %s: %w", ErrTimeout, command, host, ctx.Err())
	case err = <-done:
	}

	res := Result{Output: stdout.String(), ErrorOutput: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return res, &CommandError{Host: host, Command: command, ExitStatus: exitErr.ExitStatus()}
	}
	return res, fmt.Errorf("command %q failed on %s: %w", command, host, err)
}

// connect dials host with retry logic and performs the handshake.
func (c *Client) connect(ctx context.Context, host string) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            c.auth,
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}
	addr := net.JoinHostPort(host, strconv.Itoa(c.config.Port))

	var client *ssh.Client
	err := retry.Do(ctx, func(ctx context.Context) error {
		var dialErr error
		client, dialErr = dial(ctx, addr, config)
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
		retry.WithOnRetry(func(attempt int, err error) {
			c.config.Log.V(1).Info("retrying ssh connection", "addr", addr, "attempt", attempt, "error", err.Error())
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: connecting to %s: %w", ErrTimeout, addr, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	return client, nil
}

func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(config.Timeout))
	}
	sc, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(sc, chans, reqs), nil
}
