package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/imamik/corefleet/internal/environment"
	"github.com/imamik/corefleet/internal/platform/ssh"
)

// timeoutRunner bounds every command of the wrapped runner.
type timeoutRunner struct {
	runner  environment.RemoteRunner
	timeout time.Duration
}

func (r *timeoutRunner) Run(ctx context.Context, host, command string) (ssh.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.runner.Run(ctx, host, command)
}

// EnvValidate resolves the subnet address of every machine and runs the
// validation commands that apply to its role over SSH.
//
// Failed checks are shown as failed steps. The command still succeeds unless
// opts.Strict is set; connection errors always fail it.
func EnvValidate(ctx context.Context, opts *Options, envFile, subnetFile, specFile, username, password string) error {
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	subnet, err := loadSubnet(subnetFile)
	if err != nil {
		return err
	}
	spec, err := loadValidation(specFile)
	if err != nil {
		return err
	}

	return run(ctx, opts, "Validate environment", func(ctx context.Context, s *session) error {
		runner, err := newRunner(ssh.Config{
			User:        username,
			Password:    password,
			DialTimeout: s.timeouts.SSHDial,
			MaxRetries:  s.timeouts.SSHRetries,
			RetryDelay:  s.timeouts.SSHRetryDelay,
			Log:         s.log,
		})
		if err != nil {
			return fmt.Errorf("failed to create SSH client: %w", err)
		}
		if s.timeouts.SSHCommand > 0 {
			runner = &timeoutRunner{runner: runner, timeout: s.timeouts.SSHCommand}
		}

		o, err := newOrchestrator(s, opts)
		if err != nil {
			return err
		}
		report, err := o.Validate(ctx, env, subnet, spec, runner)
		if err != nil {
			return err
		}

		log.Printf("Validation of %s: %d/%d checks passed", env.Name, report.Passed, report.Checked)
		if !report.OK() && opts.Strict {
			return &reportedError{err: report.Err()}
		}
		return nil
	})
}

// CheckCredentials logs in to vCenter and out again.
func CheckCredentials(ctx context.Context, opts *Options) error {
	return run(ctx, opts, "Validate VCenter Credentials", func(context.Context, *session) error {
		return nil
	})
}
