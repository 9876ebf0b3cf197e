package environment

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/platform/ssh"
	"github.com/imamik/corefleet/internal/platform/vsphere"
	testutil "github.com/imamik/corefleet/internal/testing"
	"github.com/imamik/corefleet/internal/tracker"
)

func validationSpec() *config.ValidationSpec {
	return &config.ValidationSpec{ValidationCommands: []config.ValidationCommand{
		{Roles: []string{"etcd"}, Command: "systemctl is-active etcd2", Type: config.ValidationTypeExpectedOutput, Value: "active", Description: "etcd is running"},
		{Roles: []string{"worker"}, Command: "docker info", Type: config.ValidationTypeExpectedOutput, Value: "Containers", Description: "docker is running"},
		{Roles: []string{"etcd"}, Command: "uptime", Type: "exit-code", Description: "uptime check"},
	}}
}

func nic(addrs ...string) vsphere.NetworkInfo {
	return vsphere.NetworkInfo{Network: "VM Network", IPAddresses: addrs}
}

func TestValidate_RunsChecksForRole(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	fake, _ := newFixture(t)
	fake.AddVM("env-etcd-01")
	fake.SetGuestNetworks("env-etcd-01", nic("fe80::1", "172.17.0.1", "10.0.0.21"))

	runner := (&testutil.MockRunner{}).WithOutput("10.0.0.21", "systemctl is-active etcd2", "active\n")
	runner.On("Run", mock.Anything, "10.0.0.21", "uptime").Return(ssh.Result{Output: "up 3 days"}, nil)

	tr := tracker.New()
	env := testutil.NewEnvironmentBuilder("env").WithRole("etcd", 1, "").Build()
	report, err := New(fake, tr).Validate(ctx, env, testutil.DefaultSubnet(), validationSpec(), runner)
	require.NoError(t, err)

	runner.AssertExpectations(t)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, "docker info")

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 2, report.Passed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Unknown validation type", report.Failures[0].Reason)
	assert.Error(t, report.Err())

	steps := tr.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "Validate IP of env-etcd-01", steps[0].Description)
	assert.Equal(t, tracker.OutcomeDone, steps[1].Outcome)
	assert.Equal(t, tracker.OutcomeFailed, steps[2].Outcome)
}

func TestValidate_AddressResolutionFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		nets   []vsphere.NetworkInfo
		reason string
	}{
		{"no addresses", nil, "Server has no IP addresses."},
		{"only outside subnet", []vsphere.NetworkInfo{nic("192.168.1.5")}, "Server has no IP addresses."},
		{"multiple addresses", []vsphere.NetworkInfo{nic("10.0.0.5"), nic("10.0.0.6")}, "Server has multiple IP addresses."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake, _ := newFixture(t)
			fake.AddVM("env-etcd-01")
			fake.AddVM("env-etcd-02")
			fake.SetGuestNetworks("env-etcd-01", tt.nets...)
			fake.SetGuestNetworks("env-etcd-02", nic("10.0.0.22"))

			runner := (&testutil.MockRunner{}).WithOutput("10.0.0.22", "systemctl is-active etcd2", "active")
			runner.On("Run", mock.Anything, "10.0.0.22", "uptime").Return(ssh.Result{}, nil)

			tr := tracker.New()
			env := testutil.NewEnvironmentBuilder("env").WithRole("etcd", 2, "").Build()
			report, err := New(fake, tr).Validate(testutil.TestContext(t), env, testutil.DefaultSubnet(), validationSpec(), runner)
			require.NoError(t, err)

			runner.AssertNotCalled(t, "Run", mock.Anything, "10.0.0.5", mock.Anything)
			runner.AssertNotCalled(t, "Run", mock.Anything, "192.168.1.5", mock.Anything)
			require.NotEmpty(t, report.Failures)
			assert.Equal(t, "env-etcd-01", report.Failures[0].VM)
			assert.Equal(t, tt.reason, report.Failures[0].Reason)

			steps := tr.Steps()
			assert.Equal(t, tracker.OutcomeFailed, steps[0].Outcome)
			assert.Equal(t, tt.reason, steps[0].Message)
			// The second machine is still validated.
			assert.Equal(t, "Validate IP of env-etcd-02", steps[1].Description)
		})
	}
}

func TestValidate_MismatchDoesNotAbort(t *testing.T) {
	t.Parallel()
	fake, _ := newFixture(t)
	fake.AddVM("env-etcd-01")
	fake.SetGuestNetworks("env-etcd-01", nic("10.0.0.21"))

	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, "10.0.0.21", "systemctl is-active etcd2").
		Return(ssh.Result{Output: "failed"}, &ssh.CommandError{Command: "systemctl is-active etcd2", ExitStatus: 3})
	runner.On("Run", mock.Anything, "10.0.0.21", "uptime").Return(ssh.Result{}, nil)

	env := testutil.NewEnvironmentBuilder("env").WithRole("etcd", 1, "").Build()
	report, err := New(fake, tracker.New()).Validate(testutil.TestContext(t), env, testutil.DefaultSubnet(), validationSpec(), runner)
	require.NoError(t, err)
	runner.AssertExpectations(t)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, "Expected output not found.", report.Failures[0].Reason)

	var vf *ValidationFailure
	assert.ErrorAs(t, report.Err(), &vf)
}

func TestValidate_ConnectionErrorAborts(t *testing.T) {
	t.Parallel()
	fake, _ := newFixture(t)
	fake.AddVM("env-etcd-01")
	fake.SetGuestNetworks("env-etcd-01", nic("10.0.0.21"))

	runner := &testutil.MockRunner{}
	runner.On("Run", mock.Anything, "10.0.0.21", mock.Anything).Return(ssh.Result{}, ssh.ErrConnect)

	env := testutil.NewEnvironmentBuilder("env").WithRole("etcd", 1, "").Build()
	_, err := New(fake, tracker.New()).Validate(testutil.TestContext(t), env, testutil.DefaultSubnet(), validationSpec(), runner)
	assert.ErrorIs(t, err, ssh.ErrConnect)
	runner.AssertNumberOfCalls(t, "Run", 1)
}

func TestValidate_MissingVM(t *testing.T) {
	t.Parallel()
	fake, _ := newFixture(t)

	env := testutil.NewEnvironmentBuilder("env").WithRole("etcd", 1, "").Build()
	_, err := New(fake, tracker.New()).Validate(testutil.TestContext(t), env, testutil.DefaultSubnet(), validationSpec(), &testutil.MockRunner{})
	assert.True(t, errors.Is(err, ErrVMNotFound))
}

func TestSubnetAddresses(t *testing.T) {
	t.Parallel()
	_, network, err := net.ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	got := SubnetAddresses([]vsphere.NetworkInfo{
		nic("10.0.0.4", "fe80::250:56ff:fe8a:1", "10.0.1.4"),
		nic("not-an-ip", "10.0.0.250"),
	}, network)
	assert.Equal(t, []string{"10.0.0.4", "10.0.0.250"}, got)
}
