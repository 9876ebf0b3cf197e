package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/environment"
)

// Definition loaders - can be replaced in tests for dependency injection.
var (
	loadEnvironment = config.LoadEnvironment
	loadSubnet      = config.LoadSubnet
	loadHost        = config.LoadHost
	loadValidation  = config.LoadValidation
)

// newOrchestrator creates the environment orchestrator of a run.
func newOrchestrator(s *session, opts *Options) (*environment.Orchestrator, error) {
	mode, err := substitutionMode(opts)
	if err != nil {
		return nil, err
	}
	return environment.New(s.platform, s.tracker,
		environment.WithChannel(opts.Stream),
		environment.WithSubstitutionMode(mode),
	), nil
}

// EnvCreate deploys every machine of the environment from the channel
// template of the content library and powers it on.
func EnvCreate(ctx context.Context, opts *Options, envFile, subnetFile, hostFile, policyName string) error {
	policy, err := environment.ParseDeployPolicy(policyName)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	subnet, err := loadSubnet(subnetFile)
	if err != nil {
		return err
	}
	host, err := loadHost(hostFile)
	if err != nil {
		return err
	}

	return run(ctx, opts, fmt.Sprintf("Create %s", env.Name), func(ctx context.Context, s *session) error {
		o, err := newOrchestrator(s, opts)
		if err != nil {
			return err
		}
		m := newLibraryManager(s, opts)
		if _, err := m.OpenLibrary(ctx, opts.Library); err != nil {
			return err
		}
		if err := o.Deploy(ctx, env, subnet, host, m, policy); err != nil {
			return err
		}
		log.Printf("Environment %s deployed (%d machines)", env.Name, env.TotalMachines())
		return nil
	})
}

// EnvOn powers on every machine of the environment.
func EnvOn(ctx context.Context, opts *Options, envFile string) error {
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	return run(ctx, opts, "Turn on environment", func(ctx context.Context, s *session) error {
		o, err := newOrchestrator(s, opts)
		if err != nil {
			return err
		}
		return o.PowerOn(ctx, env)
	})
}

// EnvOff shuts down the guest of every machine of the environment.
func EnvOff(ctx context.Context, opts *Options, envFile string) error {
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	return run(ctx, opts, "Turn off environment", func(ctx context.Context, s *session) error {
		o, err := newOrchestrator(s, opts)
		if err != nil {
			return err
		}
		return o.PowerOff(ctx, env)
	})
}

// EnvDestroy powers off and deletes every machine of the environment.
func EnvDestroy(ctx context.Context, opts *Options, envFile, policyName string) error {
	policy, err := environment.ParseDestroyPolicy(policyName)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	return run(ctx, opts, "Destroy environment", func(ctx context.Context, s *session) error {
		o, err := newOrchestrator(s, opts)
		if err != nil {
			return err
		}
		if err := o.Destroy(ctx, env, policy); err != nil {
			return err
		}
		log.Printf("Environment %s destroyed", env.Name)
		return nil
	})
}

// EnvReconfigure rewrites the guestinfo of every machine and reboots it.
func EnvReconfigure(ctx context.Context, opts *Options, envFile, subnetFile string) error {
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	subnet, err := loadSubnet(subnetFile)
	if err != nil {
		return err
	}
	return run(ctx, opts, fmt.Sprintf("Reconfigure %s", env.Name), func(ctx context.Context, s *session) error {
		o, err := newOrchestrator(s, opts)
		if err != nil {
			return err
		}
		return o.Reconfigure(ctx, env, subnet)
	})
}
