package config

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// envRef matches ${NAME} and ${NAME:-default}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads a YAML file into cfg. Keys absent from the file keep the values
// already in cfg, so callers usually start from DefaultConfig. Environment
// references are expanded first; unknown keys and references to unset
// variables without a default are configuration errors. The result is not
// validated, since flags may still override it.
func Load(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return errors.NewConfigError("config file references unset environment variables").
			WithDetail("path", filePath).
			WithDetail("variables", missing)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").
			WithDetail("path", filePath)
	}
	return nil
}

// Save writes cfg as YAML, readable by Load.
func Save(filePath string, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", filePath)
	}
	return nil
}

// substituteEnvVars expands ${NAME} and ${NAME:-default}. A variable that is
// set, even to the empty string, wins over its default. Names that are unset
// and have no default are returned sorted and without duplicates.
func substituteEnvVars(content string) (string, []string) {
	seen := map[string]bool{}
	out := envRef.ReplaceAllStringFunc(content, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok {
			return v
		}
		if len(ref) > len(m[1])+3 {
			// ${NAME:-...} form, possibly with an empty default
			return m[2]
		}
		seen[m[1]] = true
		return ""
	})

	missing := make([]string, 0, len(seen))
	for name := range seen {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return out, missing
}
