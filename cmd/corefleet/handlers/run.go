// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/environment"
	"github.com/imamik/corefleet/internal/guestinfo"
	"github.com/imamik/corefleet/internal/platform/ssh"
	"github.com/imamik/corefleet/internal/platform/vsphere"
	"github.com/imamik/corefleet/internal/tracker"
)

// Output modes for --output.
const (
	OutputConsole = "console"
	OutputLog     = "log"
	OutputSilent  = "silent"
)

// lookupCacheSize bounds the vSphere lookup cache of one run.
const lookupCacheSize = 256

// Options holds the global flags shared by every command.
type Options struct {
	Library     string
	Stream      string
	Credentials string
	Insecure    bool
	Output      string
	CallbackURL string
	MetricsFile string
	Verbose     int
	OVAURL      string
	Strict      bool
	Substitute  string
	Timeout     time.Duration
}

// DefaultOptions returns the flag defaults.
func DefaultOptions() *Options {
	return &Options{
		Library:     "coreos",
		Stream:      "stable",
		Credentials: config.DefaultCredentialsFile,
		Insecure:    true,
		Output:      OutputConsole,
		Substitute:  guestinfo.SubstituteFirst.String(),
	}
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// stdout receives console output and rendered plans.
	stdout io.Writer = os.Stdout

	// stderr receives diagnostic logs.
	stderr io.Writer = os.Stderr

	// loadCredentials reads the vCenter login.
	loadCredentials = config.LoadCredentials

	// loadTimeouts reads deadlines from the environment.
	loadTimeouts = config.LoadTimeouts

	// connectPlatform opens a vCenter session.
	connectPlatform = func(ctx context.Context, opts vsphere.Options) (vsphere.Platform, error) {
		s, err := vsphere.Connect(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	// newRunner creates the SSH client used for validation.
	newRunner = func(cfg ssh.Config) (environment.RemoteRunner, error) {
		c, err := ssh.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
)

// reportedError wraps an error the tracker already shows.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// session is what a command body receives from run.
type session struct {
	platform vsphere.Platform
	tracker  *tracker.Tracker
	timeouts *config.Timeouts
	log      logr.Logger
}

// newLogger builds the diagnostic logger. Verbosity follows --verbose.
func newLogger(opts *Options) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: opts.Verbose, LogTimestamp: true})
}

// newTracker wires the observers selected by the flags.
func newTracker(opts *Options, log logr.Logger) (*tracker.Tracker, error) {
	var observers []tracker.Observer
	switch opts.Output {
	case OutputConsole, "":
		observers = append(observers, tracker.NewConsole(stdout))
	case OutputLog:
		observers = append(observers, tracker.NewLogger(log.WithName("tracker")))
	case OutputSilent:
	default:
		return nil, fmt.Errorf("unknown output %q (want %s, %s or %s)", opts.Output, OutputConsole, OutputLog, OutputSilent)
	}

	if opts.CallbackURL != "" {
		observers = append(observers, tracker.NewHTTPCallback(opts.CallbackURL, nil, log.WithName("callback")))
	}
	if opts.MetricsFile != "" {
		observers = append(observers, tracker.NewMetrics(opts.MetricsFile, log.WithName("metrics")))
	}
	return tracker.New(observers...), nil
}

// run executes body inside a tracked vCenter session labelled label.
//
// The workflow is:
//  1. Builds the tracker and loads credentials and timeouts
//  2. Connects to vCenter as the first step
//  3. Runs body
//  4. Logs out as the last step
//
// A failure is reported to the tracker before the session is closed and the
// error is returned unchanged.
func run(ctx context.Context, opts *Options, label string, body func(ctx context.Context, s *session) error) error {
	log := newLogger(opts)
	t, err := newTracker(opts, log)
	if err != nil {
		return err
	}

	timeouts := loadTimeouts()
	deadline := opts.Timeout
	if deadline == 0 {
		deadline = timeouts.Run
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	t.StartRun(label)
	defer t.FinishRun()

	creds, err := loadCredentials(opts.Credentials)
	if err != nil {
		t.ReportError(err.Error())
		return err
	}

	t.StartStep(false, "Connect to VCenter", "desktop_computer")
	connectCtx := ctx
	if timeouts.Connect > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, timeouts.Connect)
		defer cancel()
	}
	p, err := connectPlatform(connectCtx, vsphere.Options{
		Host:          creds.Host,
		Username:      creds.Username,
		Password:      creds.Password,
		Insecure:      opts.Insecure,
		CacheSize:     lookupCacheSize,
		TaskTimeout:   timeouts.Task,
		DeployTimeout: timeouts.Deploy,
		Log:           log,
	})
	if err != nil {
		err = fmt.Errorf("failed to connect to vCenter: %w", err)
		t.ReportError(err.Error())
		return err
	}
	t.FinishStep()

	s := &session{platform: p, tracker: t, timeouts: timeouts, log: log}
	if err := body(ctx, s); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			t.ReportError(err.Error())
		}
		if derr := p.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			log.Error(derr, "logout after failure")
		}
		return err
	}

	t.StartStep(false, "Logout from VCenter", "desktop_computer")
	if err := p.Disconnect(ctx); err != nil {
		t.ReportError(err.Error())
		return fmt.Errorf("failed to log out from vCenter: %w", err)
	}
	t.FinishStep()
	return nil
}

// substitutionMode parses --substitute.
func substitutionMode(opts *Options) (guestinfo.SubstitutionMode, error) {
	return guestinfo.ParseSubstitutionMode(opts.Substitute)
}
