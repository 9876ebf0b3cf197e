package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultCredentialsFile is read when no --credentials flag is given.
const DefaultCredentialsFile = ".credentials.json"

// Environment variables that override file-based credentials.
const (
	EnvHost     = "COREFLEET_HOST"
	EnvUsername = "COREFLEET_USERNAME"
	EnvPassword = "COREFLEET_PASSWORD"
)

// iniSection is read from INI credentials files before the default section.
const iniSection = "vcenter"

// LoadCredentials reads vCenter credentials from path and applies environment
// overrides. A missing file is accepted when the environment supplies every
// field.
func LoadCredentials(path string) (*Credentials, error) {
	creds := &Credentials{}

	// #nosec G304
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fromEnv := credentialsFromEnv(creds)
		if fromEnv.Validate() == nil {
			return fromEnv, nil
		}
		return nil, &ConfigError{Message: describe("Credentials", path) + " not found."}
	case err != nil:
		return nil, &ConfigError{Path: path, Message: "failed to read file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".conf":
		if err := decodeINI(data, creds); err != nil {
			return nil, &ConfigError{Path: path, Message: "failed to parse", Err: err}
		}
	default:
		if err := decode(path, data, creds); err != nil {
			return nil, err
		}
	}

	creds = credentialsFromEnv(creds)
	if err := creds.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return creds, nil
}

func decodeINI(data []byte, creds *Credentials) error {
	cfg, err := ini.Load(data)
	if err != nil {
		return err
	}
	section := cfg.Section(ini.DefaultSection)
	if cfg.HasSection(iniSection) {
		section = cfg.Section(iniSection)
	}
	return section.MapTo(creds)
}

func credentialsFromEnv(base *Credentials) *Credentials {
	out := *base
	if v := os.Getenv(EnvHost); v != "" {
		out.Host = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		out.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		out.Password = v
	}
	return &out
}
