package environment

import (
	"errors"
	"fmt"
	"slices"
)

// ErrPolicyNotSupported is returned when a policy does not apply to an operation.
var ErrPolicyNotSupported = errors.New("policy not supported")

// Policies accepted by Deploy and Destroy.
var (
	DeployPolicies  = []Policy{SkipIfExists, Force}
	DestroyPolicies = []Policy{Force, SkipMissing}
)

// Policy decides what happens when a machine already exists, or is missing.
type Policy int

const (
	// SkipIfExists leaves machines that already exist untouched.
	SkipIfExists Policy = iota
	// Force acts without checking for existence first.
	Force
	// SkipMissing skips machines that do not exist.
	SkipMissing
)

// String returns the flag value of p.
func (p Policy) String() string {
	switch p {
	case SkipIfExists:
		return "skip-if-exists"
	case Force:
		return "force"
	case SkipMissing:
		return "skip-missing"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy flag value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "skip-if-exists":
		return SkipIfExists, nil
	case "force":
		return Force, nil
	case "skip-missing":
		return SkipMissing, nil
	default:
		return 0, fmt.Errorf("unknown policy %q (expected skip-if-exists, force or skip-missing)", s)
	}
}

// ParseDeployPolicy parses s and checks that Deploy accepts it.
func ParseDeployPolicy(s string) (Policy, error) {
	return parseFor("deploy", s, DeployPolicies)
}

// ParseDestroyPolicy parses s and checks that Destroy accepts it.
func ParseDestroyPolicy(s string) (Policy, error) {
	return parseFor("destroy", s, DestroyPolicies)
}

func parseFor(op, s string, allowed []Policy) (Policy, error) {
	p, err := ParsePolicy(s)
	if err != nil {
		return 0, err
	}
	return p, checkPolicy(op, p, allowed)
}

func checkPolicy(op string, p Policy, allowed []Policy) error {
	if slices.Contains(allowed, p) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot use %s (expected %s or %s)", ErrPolicyNotSupported, op, p, allowed[0], allowed[1])
}
