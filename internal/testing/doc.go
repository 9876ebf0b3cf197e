// Package testing provides test utilities, builders, and fakes shared by the
// unit tests of the vSphere facing packages.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - FakePlatform: In-memory vCenter inventory implementing vsphere.Platform
//   - EnvironmentBuilder: Fluent builder for environment definitions
//   - MockRunner: testify mock for the remote command runner
//
// Usage:
//
//	env := testing.NewEnvironmentBuilder("prod").
//	    WithRole("worker", 2, "worker.yaml").
//	    Build()
//
//	fake := testing.NewFakePlatform().WithDefaultInventory()
package testing
