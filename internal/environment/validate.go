package environment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/platform/ssh"
	"github.com/imamik/corefleet/internal/platform/vsphere"
)

// Step messages of address resolution failures.
const (
	msgNoAddress        = "Server has no IP addresses."
	msgMultipleAddress  = "Server has multiple IP addresses."
	msgUnknownType      = "Unknown validation type"
	msgUnexpectedOutput = "Expected output not found."
)

// RemoteRunner runs a command on a machine.
type RemoteRunner interface {
	Run(ctx context.Context, host, command string) (ssh.Result, error)
}

// ValidationFailure is a check that did not pass. It never aborts the
// remaining checks.
type ValidationFailure struct {
	VM          string
	Role        string
	Description string
	Reason      string
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("%s: %s: %s", f.VM, f.Description, f.Reason)
}

// ValidationReport summarises a Validate run.
type ValidationReport struct {
	Checked  int
	Passed   int
	Failures []*ValidationFailure
}

// OK reports whether every check passed.
func (r *ValidationReport) OK() bool {
	return len(r.Failures) == 0
}

// Err joins all failures, or returns nil.
func (r *ValidationReport) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *ValidationReport) fail(f *ValidationFailure) {
	r.Checked++
	r.Failures = append(r.Failures, f)
}

func (r *ValidationReport) pass() {
	r.Checked++
	r.Passed++
}

// Validate resolves the subnet address of every machine of env and runs the
// checks of spec that apply to its role. A machine without exactly one
// address is a failure and gets no remote commands. Errors reaching the
// platform or a machine abort the run.
func (o *Orchestrator) Validate(ctx context.Context, env *config.EnvironmentDefinition, subnet *config.SubnetDefinition, spec *config.ValidationSpec, runner RemoteRunner) (*ValidationReport, error) {
	network, err := subnet.Network()
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{}
	for _, inst := range Instances(env) {
		desc := "Validate IP of " + inst.Name
		o.tracker.StartStep(false, desc, "mag_right")
		vm, err := o.findVM(ctx, inst.Name)
		if err != nil {
			return report, err
		}
		nets, err := o.platform.GuestNetworks(ctx, vm)
		if err != nil {
			return report, err
		}
		addresses := SubnetAddresses(nets, network)
		switch len(addresses) {
		case 0:
			o.tracker.FinishStepFailed(msgNoAddress)
			report.fail(&ValidationFailure{VM: inst.Name, Role: inst.Role.Name, Description: desc, Reason: msgNoAddress})
			continue
		case 1:
			o.tracker.FinishStep()
			report.pass()
		default:
			o.tracker.FinishStepFailed(msgMultipleAddress)
			report.fail(&ValidationFailure{VM: inst.Name, Role: inst.Role.Name, Description: desc, Reason: msgMultipleAddress})
			continue
		}

		for _, check := range spec.ValidationCommands {
			if !check.AppliesTo(inst.Role.Name) {
				continue
			}
			if err := o.runCheck(ctx, runner, inst, addresses[0], check, report); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func (o *Orchestrator) runCheck(ctx context.Context, runner RemoteRunner, inst Instance, address string, check config.ValidationCommand, report *ValidationReport) error {
	o.tracker.StartStep(false, check.Description, "ballot_box_with_check")

	res, err := runner.Run(ctx, address, check.Command)
	var cmdErr *ssh.CommandError
	if err != nil && !errors.As(err, &cmdErr) {
		return err
	}

	failure := &ValidationFailure{VM: inst.Name, Role: inst.Role.Name, Description: check.Description}
	switch {
	case check.Type != config.ValidationTypeExpectedOutput:
		failure.Reason = msgUnknownType
	case !strings.Contains(res.Output, check.Value):
		failure.Reason = msgUnexpectedOutput
	default:
		o.tracker.FinishStep()
		report.pass()
		return nil
	}

	o.tracker.FinishStepFailed(failure.Reason)
	report.fail(failure)
	return nil
}

// SubnetAddresses returns the IPv4 guest addresses that fall inside network,
// in the order reported.
func SubnetAddresses(nets []vsphere.NetworkInfo, network *net.IPNet) []string {
	var out []string
	for _, nic := range nets {
		for _, raw := range nic.IPAddresses {
			ip := net.ParseIP(raw)
			if ip == nil || ip.To4() == nil {
				continue
			}
			if network.Contains(ip) {
				out = append(out, raw)
			}
		}
	}
	return out
}
