package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"sigs.k8s.io/yaml"
)

// validator is implemented by every definition type.
type validator interface {
	Validate() error
}

// LoadEnvironment reads and validates an environment definition.
// Relative CloudInitSource paths are resolved against the working directory.
func LoadEnvironment(path string) (*EnvironmentDefinition, error) {
	var env EnvironmentDefinition
	if err := loadFile(path, &env); err != nil {
		return nil, err
	}
	for i := range env.Machines {
		src := env.Machines[i].CloudInitSource
		if src == "" || filepath.IsAbs(src) {
			continue
		}
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, &ConfigError{Path: path, Field: "CloudInitSource", Message: "cannot resolve path", Err: err}
		}
		env.Machines[i].CloudInitSource = abs
	}
	return &env, nil
}

// LoadSubnet reads and validates a subnet definition.
func LoadSubnet(path string) (*SubnetDefinition, error) {
	var subnet SubnetDefinition
	if err := loadFile(path, &subnet); err != nil {
		return nil, err
	}
	return &subnet, nil
}

// LoadHost reads and validates a host definition.
func LoadHost(path string) (*HostDefinition, error) {
	var host HostDefinition
	if err := loadFile(path, &host); err != nil {
		return nil, err
	}
	return &host, nil
}

// LoadValidation reads and validates a validation spec.
func LoadValidation(path string) (*ValidationSpec, error) {
	var spec ValidationSpec
	if err := loadFile(path, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func loadFile(path string, out validator) error {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Path: path, Message: "failed to read file", Err: err}
	}
	if err := decode(path, data, out); err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Path = path
			return ce
		}
		return &ConfigError{Path: path, Message: "validation failed", Err: err}
	}
	return nil
}

// decode parses JSON, JSONC or YAML into out. Keys are matched through the
// json struct tags for all three formats.
func decode(path string, data []byte, out any) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), out)
	default:
		err = yaml.Unmarshal(data, out)
	}
	if err != nil {
		return &ConfigError{Path: path, Message: "failed to parse", Err: err}
	}
	return nil
}

// describe is used in error messages that name a file kind.
func describe(kind, path string) string {
	return fmt.Sprintf("%s file %s", kind, path)
}
