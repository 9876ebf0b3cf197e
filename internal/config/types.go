package config

import "net"

// EnvironmentDefinition describes the roles that make up an environment.
type EnvironmentDefinition struct {
	Name        string           `json:"Name"`
	Description string           `json:"Description,omitempty"`
	Machines    []RoleDefinition `json:"Machines"`
}

// RoleDefinition describes a group of identical machines.
type RoleDefinition struct {
	Name            string `json:"Name"`
	Count           int    `json:"Count"`
	CloudInitSource string `json:"CloudInitSource"`
	// StaticIP switches the machine from DHCP to a fixed address. It is a bare
	// address; the prefix comes from the subnet mask.
	StaticIP         string        `json:"StaticIP,omitempty"`
	CloudInitReplace []Replacement `json:"CloudInitReplace,omitempty"`
}

// Replacement substitutes ##Name## tokens in a cloud-config source.
type Replacement struct {
	Name         string `json:"Name"`
	ReplaceValue string `json:"ReplaceValue"`
}

// TotalMachines returns the number of machines across all roles.
func (e *EnvironmentDefinition) TotalMachines() int {
	total := 0
	for _, m := range e.Machines {
		total += m.Count
	}
	return total
}

// SubnetDefinition describes the network machines are attached to.
type SubnetDefinition struct {
	GatewayIP  string   `json:"GatewayIP"`
	DNSServers []string `json:"DNSServers"`
	SubnetIP   string   `json:"SubnetIP"`
	SubnetMask string   `json:"SubnetMask"`
}

// Network returns the subnet as an IPNet suitable for membership tests.
func (s *SubnetDefinition) Network() (*net.IPNet, error) {
	ip := net.ParseIP(s.SubnetIP).To4()
	if ip == nil {
		return nil, &ConfigError{Field: "SubnetIP", Message: "invalid IPv4 address " + quote(s.SubnetIP)}
	}
	mask, err := ParseMask(s.SubnetMask)
	if err != nil {
		return nil, &ConfigError{Field: "SubnetMask", Message: err.Error()}
	}
	return &net.IPNet{IP: ip.Mask(mask), Mask: mask}, nil
}

// HostDefinition names the vSphere objects an environment is deployed onto.
type HostDefinition struct {
	Host         string `json:"Host"`
	Datastore    string `json:"Datastore"`
	ResourcePool string `json:"ResourcePool"`
}

// ValidationSpec lists the commands run against provisioned machines.
type ValidationSpec struct {
	ValidationCommands []ValidationCommand `json:"ValidationCommands"`
}

// ValidationTypeExpectedOutput asserts that stdout contains Value.
const ValidationTypeExpectedOutput = "expected-output"

// ValidationCommand is a single remote assertion.
type ValidationCommand struct {
	Roles       []string `json:"Roles"`
	Command     string   `json:"Command"`
	Type        string   `json:"Type"`
	Value       string   `json:"Value"`
	Description string   `json:"Description"`
}

// AppliesTo reports whether the command runs on machines of role.
func (v ValidationCommand) AppliesTo(role string) bool {
	for _, r := range v.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Credentials holds the vCenter login.
type Credentials struct {
	Host     string `json:"host" ini:"host"`
	Username string `json:"username" ini:"username"`
	Password string `json:"password" ini:"password"`
}
