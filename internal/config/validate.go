package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ConfigError reports an invalid or unreadable definition file.
type ConfigError struct {
	Path    string // File the error was found in, empty when not file-bound
	Field   string // Offending field, empty for file-level errors
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ParseMask parses a dotted IPv4 netmask. Non-contiguous masks are rejected.
func ParseMask(mask string) (net.IPMask, error) {
	ip := net.ParseIP(mask).To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid netmask %s", quote(mask))
	}
	m := net.IPv4Mask(ip[0], ip[1], ip[2], ip[3])
	if _, bits := m.Size(); bits == 0 {
		return nil, fmt.Errorf("non-contiguous netmask %s", quote(mask))
	}
	return m, nil
}

// Validate checks the environment for structural errors.
func (e *EnvironmentDefinition) Validate() error {
	if e.Name == "" {
		return &ConfigError{Field: "Name", Message: "is required"}
	}

	seen := make(map[string]bool, len(e.Machines))
	for i, m := range e.Machines {
		field := fmt.Sprintf("Machines[%d]", i)
		if m.Name == "" {
			return &ConfigError{Field: field + ".Name", Message: "is required"}
		}
		if seen[m.Name] {
			return &ConfigError{Field: field + ".Name", Message: "duplicate role " + quote(m.Name)}
		}
		seen[m.Name] = true

		if m.Count < 0 {
			return &ConfigError{Field: field + ".Count", Message: "must not be negative"}
		}
		if m.Count > 0 && m.CloudInitSource == "" {
			return &ConfigError{Field: field + ".CloudInitSource", Message: "is required"}
		}
		if m.StaticIP != "" {
			if strings.Contains(m.StaticIP, "/") {
				return &ConfigError{Field: field + ".StaticIP", Message: "must be a single address, not a CIDR"}
			}
			if net.ParseIP(m.StaticIP).To4() == nil {
				return &ConfigError{Field: field + ".StaticIP", Message: "invalid IPv4 address " + quote(m.StaticIP)}
			}
		}
		for j, r := range m.CloudInitReplace {
			if r.Name == "" {
				return &ConfigError{Field: fmt.Sprintf("%s.CloudInitReplace[%d].Name", field, j), Message: "is required"}
			}
		}
	}
	return nil
}

// Validate checks that the subnet forms a usable CIDR and that addresses parse.
func (s *SubnetDefinition) Validate() error {
	if _, err := s.Network(); err != nil {
		return err
	}
	if s.GatewayIP != "" && net.ParseIP(s.GatewayIP).To4() == nil {
		return &ConfigError{Field: "GatewayIP", Message: "invalid IPv4 address " + quote(s.GatewayIP)}
	}
	for i, dns := range s.DNSServers {
		if net.ParseIP(dns) == nil {
			return &ConfigError{Field: fmt.Sprintf("DNSServers[%d]", i), Message: "invalid address " + quote(dns)}
		}
	}
	return nil
}

// Validate checks that every deployment target is named.
func (h *HostDefinition) Validate() error {
	switch {
	case h.Host == "":
		return &ConfigError{Field: "Host", Message: "is required"}
	case h.Datastore == "":
		return &ConfigError{Field: "Datastore", Message: "is required"}
	case h.ResourcePool == "":
		return &ConfigError{Field: "ResourcePool", Message: "is required"}
	}
	return nil
}

// Validate checks that every command can be executed. Unknown assertion
// types are accepted here and reported when the command runs.
func (v *ValidationSpec) Validate() error {
	for i, c := range v.ValidationCommands {
		if c.Command == "" {
			return &ConfigError{Field: fmt.Sprintf("ValidationCommands[%d].Command", i), Message: "is required"}
		}
	}
	return nil
}

// Validate checks that the login is complete.
func (c *Credentials) Validate() error {
	switch {
	case c.Host == "":
		return &ConfigError{Field: "host", Message: "is required"}
	case c.Username == "":
		return &ConfigError{Field: "username", Message: "is required"}
	case c.Password == "":
		return &ConfigError{Field: "password", Message: "is required"}
	}
	return nil
}

func quote(s string) string {
	return strconv.Quote(s)
}
