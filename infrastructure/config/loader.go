package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads configuration files.
type Loader struct {
	// ExpandEnv enables ${VAR} expansion in the raw YAML.
	ExpandEnv bool
	// StrictEnv fails the load when a ${VAR:?msg} reference is unset.
	StrictEnv bool
}

// NewLoader creates a loader with env expansion on and strict mode off.
func NewLoader() *Loader {
	return &Loader{ExpandEnv: true}
}

// LoadFile loads and validates configuration from a YAML file. Values not
// present in the file keep their defaults.
func (l *Loader) LoadFile(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("accessing config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return l.Load(raw)
}

// Load parses configuration from raw YAML bytes.
func (l *Loader) Load(raw []byte) (*Config, error) {
	text := string(raw)
	if l.ExpandEnv {
		expanded, err := expandEnv(text, l.StrictEnv)
		if err != nil {
			return nil, err
		}
		text = expanded
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(text), cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envPattern matches ${VAR}, ${VAR:-default}, and ${VAR:?message}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)

// expandEnv substitutes environment references in the raw config text.
func expandEnv(input string, strict bool) (string, error) {
	var missing []string

	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		inner := match[2 : len(match)-1]
		parts := strings.SplitN(inner, ":", 2)
		name := parts[0]
		modifier := ""
		if len(parts) > 1 {
			modifier = parts[1]
		}

		value, exists := os.LookupEnv(name)
		switch {
		case strings.HasPrefix(modifier, "-"):
			if !exists || value == "" {
				return modifier[1:]
			}
		case strings.HasPrefix(modifier, "?"):
			if !exists || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, modifier[1:]))
				return match
			}
		default:
			if !exists && strict {
				missing = append(missing, name)
				return match
			}
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVars, strings.Join(missing, "; "))
	}
	return result, nil
}
