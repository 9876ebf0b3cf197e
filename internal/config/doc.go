// Package config defines the definition files consumed by corefleet and the
// loaders that read them.
//
// An environment is described by four independent files: the
// [EnvironmentDefinition] (roles and counts), the [SubnetDefinition]
// (gateway, DNS and the subnet used for address resolution), the
// [HostDefinition] (deployment target) and the [ValidationSpec] (commands
// asserted over SSH). Files may be JSON, JSON with comments, or YAML.
//
// Credentials for vCenter are read from a JSON or INI file and may be
// overridden through COREFLEET_HOST, COREFLEET_USERNAME and
// COREFLEET_PASSWORD.
package config
