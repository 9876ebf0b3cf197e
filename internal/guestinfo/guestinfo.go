package guestinfo

import (
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	butaneconfig "github.com/coreos/butane/config"
	butanecommon "github.com/coreos/butane/config/common"

	"github.com/imamik/corefleet/internal/config"
)

// Fixed interface attributes.
const (
	InterfaceName    = "ens192"
	InterfaceRole    = "private"
	DefaultRoute     = "0.0.0.0/0"
	EncodingBase64   = "base64"
	dhcpEnabled      = "yes"
	dhcpDisabled     = "no"
	keyPrefix        = "guestinfo."
	interfacePattern = keyPrefix + "interface.%d."
)

// Setting is a single extra config key/value pair.
type Setting struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Interface is a guest network interface. Empty optional fields are omitted
// from the settings.
type Interface struct {
	Name        string
	DHCP        string
	Role        string
	Address     string // address/prefix
	Destination string
	Gateway     string
}

// SubstitutionMode controls how ##Name## tokens are replaced.
type SubstitutionMode int

const (
	// SubstituteFirst replaces only the first occurrence of each token.
	SubstituteFirst SubstitutionMode = iota
	// SubstituteAll replaces every occurrence of each token.
	SubstituteAll
)

// ParseSubstitutionMode parses "first" or "all".
func ParseSubstitutionMode(s string) (SubstitutionMode, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return SubstituteFirst, nil
	case "all":
		return SubstituteAll, nil
	default:
		return SubstituteFirst, fmt.Errorf("unknown substitution mode %q (want first or all)", s)
	}
}

func (m SubstitutionMode) String() string {
	if m == SubstituteAll {
		return "all"
	}
	return "first"
}

// Config accumulates the guestinfo state of one VM.
type Config struct {
	hostname   string
	interfaces []Interface
	dns        []string
	data       string
	mode       SubstitutionMode
}

// New creates a config for hostname with no interface and an empty payload.
func New(hostname string) *Config {
	return &Config{hostname: hostname}
}

// Hostname returns the configured hostname.
func (c *Config) Hostname() string {
	return c.hostname
}

// SetSubstitutionMode selects how cloud-config tokens are replaced.
func (c *Config) SetSubstitutionMode(mode SubstitutionMode) {
	c.mode = mode
}

// BuildDHCP replaces the interface with a DHCP-configured one.
func (c *Config) BuildDHCP() {
	c.interfaces = []Interface{{
		Name: InterfaceName,
		DHCP: dhcpEnabled,
		Role: InterfaceRole,
	}}
}

// BuildStatic replaces the interface with a statically addressed one routed
// through gateway. The prefix length is derived from the dotted mask.
func (c *Config) BuildStatic(address, gateway, mask string) error {
	ip := net.ParseIP(address).To4()
	if ip == nil {
		return fmt.Errorf("invalid IPv4 address %q", address)
	}
	prefix, err := PrefixLength(mask)
	if err != nil {
		return err
	}
	c.interfaces = []Interface{{
		Name:        InterfaceName,
		DHCP:        dhcpDisabled,
		Role:        InterfaceRole,
		Address:     fmt.Sprintf("%s/%d", ip, prefix),
		Destination: DefaultRoute,
		Gateway:     gateway,
	}}
	return nil
}

// PrefixLength returns the number of leading one bits in a dotted IPv4 mask.
func PrefixLength(mask string) (int, error) {
	m, err := config.ParseMask(mask)
	if err != nil {
		return 0, err
	}
	ones, _ := m.Size()
	return ones, nil
}

// SetDNS replaces the DNS server list, preserving order.
func (c *Config) SetDNS(servers []string) {
	c.dns = append([]string(nil), servers...)
}

// Interfaces returns a copy of the configured interfaces.
func (c *Config) Interfaces() []Interface {
	return append([]Interface(nil), c.interfaces...)
}

// LoadCloudConfig reads path, applies substitutions and stores the base64
// payload. Butane sources (.bu, .butane) are translated to Ignition after
// substitution.
func (c *Config) LoadCloudConfig(path string, subs []config.Replacement) error {
	// #nosec G304
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cloud config %s: %w", path, err)
	}
	return c.LoadCloudConfigBytes(content, isButane(path), subs)
}

// LoadCloudConfigBytes is LoadCloudConfig for in-memory content.
func (c *Config) LoadCloudConfigBytes(content []byte, butane bool, subs []config.Replacement) error {
	rendered := []byte(Substitute(string(content), subs, c.mode))
	if butane {
		ign, _, err := butaneconfig.TranslateBytes(rendered, butanecommon.TranslateBytesOptions{Raw: true})
		if err != nil {
			return fmt.Errorf("failed to translate butane config: %w", err)
		}
		rendered = ign
	}
	c.data = base64.StdEncoding.EncodeToString(rendered)
	return nil
}

func isButane(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bu", ".butane":
		return true
	}
	return false
}

// Substitute replaces ##Name## tokens in content with their values.
func Substitute(content string, subs []config.Replacement, mode SubstitutionMode) string {
	n := 1
	if mode == SubstituteAll {
		n = -1
	}
	for _, s := range subs {
		content = strings.Replace(content, "##"+s.Name+"##", s.ReplaceValue, n)
	}
	return content
}

// Settings renders the ordered guestinfo settings. The encoding and data keys
// are always present, even when no cloud config was loaded.
func (c *Config) Settings() []Setting {
	out := []Setting{{Key: keyPrefix + "hostname", Value: c.hostname}}

	for i, iface := range c.interfaces {
		prefix := fmt.Sprintf(interfacePattern, i)
		out = appendIfSet(out, prefix+"name", iface.Name)
		out = appendIfSet(out, prefix+"DHCP", iface.DHCP)
		out = appendIfSet(out, prefix+"role", iface.Role)
		out = appendIfSet(out, prefix+"ip.0.address", iface.Address)
		out = appendIfSet(out, prefix+"route.0.destination", iface.Destination)
		out = appendIfSet(out, prefix+"route.0.gateway", iface.Gateway)
	}
	for i, dns := range c.dns {
		out = append(out, Setting{Key: fmt.Sprintf("%sdns.server.%d", keyPrefix, i), Value: dns})
	}

	return append(out,
		Setting{Key: keyPrefix + "coreos.config.data.encoding", Value: EncodingBase64},
		Setting{Key: keyPrefix + "coreos.config.data", Value: c.data},
	)
}

func appendIfSet(out []Setting, key, value string) []Setting {
	if value == "" {
		return out
	}
	return append(out, Setting{Key: key, Value: value})
}
