package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables. A zero duration
// means the operation runs without a deadline.
type Timeouts struct {
	Run           time.Duration // Deadline for a whole command
	Connect       time.Duration // Deadline for the vCenter login
	Download      time.Duration // Deadline for fetching an OVA
	Deploy        time.Duration // Deadline for a single library item deployment
	Task          time.Duration // Deadline for reconfigure and power tasks
	SSHDial       time.Duration // Timeout for establishing an SSH connection
	SSHCommand    time.Duration // Deadline for a single validation command
	SSHRetries    int           // Number of SSH connection retries
	SSHRetryDelay time.Duration // Initial delay between SSH connection retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - COREFLEET_TIMEOUT_RUN (default: none)
//   - COREFLEET_TIMEOUT_CONNECT (default: none)
//   - COREFLEET_TIMEOUT_DOWNLOAD (default: none)
//   - COREFLEET_TIMEOUT_DEPLOY (default: none)
//   - COREFLEET_TIMEOUT_TASK (default: none)
//   - COREFLEET_TIMEOUT_SSH_DIAL (default: 10s)
//   - COREFLEET_TIMEOUT_SSH_COMMAND (default: none)
//   - COREFLEET_SSH_RETRIES (default: 0)
//   - COREFLEET_SSH_RETRY_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Run:           parseDuration("COREFLEET_TIMEOUT_RUN", 0),
		Connect:       parseDuration("COREFLEET_TIMEOUT_CONNECT", 0),
		Download:      parseDuration("COREFLEET_TIMEOUT_DOWNLOAD", 0),
		Deploy:        parseDuration("COREFLEET_TIMEOUT_DEPLOY", 0),
		Task:          parseDuration("COREFLEET_TIMEOUT_TASK", 0),
		SSHDial:       parseDuration("COREFLEET_TIMEOUT_SSH_DIAL", 10*time.Second),
		SSHCommand:    parseDuration("COREFLEET_TIMEOUT_SSH_COMMAND", 0),
		SSHRetries:    parseInt("COREFLEET_SSH_RETRIES", 0),
		SSHRetryDelay: parseDuration("COREFLEET_SSH_RETRY_DELAY", 2*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}
