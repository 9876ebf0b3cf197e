package vsphere

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/vapi/library"
	"github.com/vmware/govmomi/vapi/rest"
	"github.com/vmware/govmomi/vapi/vcenter"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
)

// Options configures a Session.
type Options struct {
	Host     string
	Username string
	Password string
	// Insecure skips TLS certificate verification.
	Insecure bool
	// CacheSize bounds the lookup cache. Zero disables caching.
	CacheSize int
	// TaskTimeout bounds each power, reconfigure and destroy task. Zero
	// waits indefinitely.
	TaskTimeout time.Duration
	// DeployTimeout bounds a single library item deployment.
	DeployTimeout time.Duration
	Log           logr.Logger
}

// Session is an authenticated connection to vCenter.
type Session struct {
	vim       *vim25.Client
	rest      *rest.Client
	libraries *library.Manager
	deployer  *vcenter.Manager
	cache     *lookupCache
	timeout   time.Duration
	deploy    time.Duration
	log       logr.Logger
}

// Connect logs in to the SOAP and REST endpoints of opts.Host.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	if opts.Host == "" {
		return nil, errors.New("vCenter host is required")
	}
	u, err := soap.ParseURL(opts.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid vCenter host %q: %w", opts.Host, err)
	}
	u.User = url.UserPassword(opts.Username, opts.Password)

	client, err := govmomi.NewClient(ctx, u, opts.Insecure)
	if err != nil {
		return nil, fmt.Errorf("failed to log in to %s: %w", u.Host, err)
	}

	rc := rest.NewClient(client.Client)
	if err := rc.Login(ctx, url.UserPassword(opts.Username, opts.Password)); err != nil {
		_ = client.Logout(ctx)
		return nil, fmt.Errorf("failed to create API session on %s: %w", u.Host, err)
	}

	return newSession(client.Client, rc, opts), nil
}

func newSession(vim *vim25.Client, rc *rest.Client, opts Options) *Session {
	log := opts.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Session{
		vim:       vim,
		rest:      rc,
		libraries: library.NewManager(rc),
		deployer:  vcenter.NewManager(rc),
		cache:     newLookupCache(opts.CacheSize),
		timeout:   opts.TaskTimeout,
		deploy:    opts.DeployTimeout,
		log:       log.WithName("vsphere"),
	}
}

// Disconnect ends both API sessions.
func (s *Session) Disconnect(ctx context.Context) error {
	var errs []error
	if err := s.rest.Logout(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to end API session: %w", err))
	}
	if err := session.NewManager(s.vim).Logout(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to log out: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Session) taskContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withDeadline(ctx, s.timeout)
}

func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
