package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/filter"
)

// FileConfig is the top-level structure of a noisegate YAML file.
type FileConfig struct {
	Version        int           `yaml:"version"`
	Mode           string        `yaml:"mode,omitempty"`
	Listen         string        `yaml:"listen,omitempty"`
	Target         string        `yaml:"target,omitempty"`
	Exclude        []string      `yaml:"exclude,omitempty"`
	APIFallback    APIFallback   `yaml:"api_fallback,omitempty"`
	AdminAddr      string        `yaml:"admin_addr,omitempty"`
	Audit          AuditSettings `yaml:"audit,omitempty"`
	ResponsePolicy string        `yaml:"response_policy,omitempty"`
}

// APIFallback configures which API paths reach the fallback handler.
type APIFallback struct {
	Prefix      string   `yaml:"prefix,omitempty"`
	Passthrough []string `yaml:"passthrough,omitempty"`
}

// AuditSettings configures the audit log.
type AuditSettings struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

// Config is the runtime configuration for noisegate.
type Config struct {
	File *FileConfig
	Path string

	Mode           api.Mode
	Listen         string
	Target         string
	Exclude        []string
	APIPrefix      string
	APIPassthrough []string
	AdminAddr      string
	AuditEnabled   bool
	LogDir         string
	ResponsePolicy string
}

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// Load reads a YAML config file and produces a runtime Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	// A relative policy path is resolved against the config file.
	if cfg.ResponsePolicy != "" && !filepath.IsAbs(cfg.ResponsePolicy) {
		cfg.ResponsePolicy = filepath.Join(filepath.Dir(path), cfg.ResponsePolicy)
	}
	return cfg, nil
}

// LoadBytes parses YAML data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("loading config: parsing yaml: %w", err)
	}
	if err := Validate(&fc); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return fromFile(&fc), nil
}

// Validate checks a parsed config file for errors.
func Validate(fc *FileConfig) error {
	if fc.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", fc.Version)
	}
	if fc.Target != "" {
		u, err := url.Parse(fc.Target)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", fc.Target, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid target %q: scheme and host are required", fc.Target)
		}
	}
	if p := fc.APIFallback.Prefix; p != "" && !strings.HasPrefix(p, "/") {
		return fmt.Errorf("api_fallback.prefix %q must start with /", p)
	}
	for _, p := range fc.APIFallback.Passthrough {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("api_fallback.passthrough entry %q must start with /", p)
		}
	}
	if _, err := filter.NewMatcher(fc.Exclude); err != nil {
		return err
	}
	return nil
}

func fromFile(fc *FileConfig) *Config {
	cfg := &Config{
		File:           fc,
		Mode:           api.ParseMode(fc.Mode),
		Listen:         fc.Listen,
		Target:         fc.Target,
		Exclude:        fc.Exclude,
		APIPrefix:      fc.APIFallback.Prefix,
		APIPassthrough: fc.APIFallback.Passthrough,
		AdminAddr:      fc.AdminAddr,
		AuditEnabled:   fc.Audit.Enabled,
		LogDir:         fc.Audit.Dir,
		ResponsePolicy: fc.ResponsePolicy,
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = DefaultAPIPrefix
	}
	if cfg.AdminAddr == "" {
		cfg.AdminAddr = DefaultAdminAddr
	}
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir()
	}
	cfg.LogDir = expandHome(cfg.LogDir)
	cfg.ResponsePolicy = expandHome(cfg.ResponsePolicy)

	cfg.applyEnv()
	return cfg
}

// applyEnv applies environment overrides. Mode is read once here and
// never again while the process runs.
func (c *Config) applyEnv() {
	if v, ok := lookupEnv(ModeEnv); ok {
		c.Mode = api.ParseMode(v)
	}
}

// ExcludePatterns returns the interceptor exclusion globs. An absent
// exclude key means the defaults; an explicit empty list disables exclusion.
func (c *Config) ExcludePatterns() []string {
	if c.Exclude == nil {
		return filter.DefaultExcludePatterns()
	}
	return c.Exclude
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfig returns a config with defaults for when no config file is given.
func DefaultConfig() *Config {
	return fromFile(&FileConfig{Version: 1})
}

// MarshalYAML serializes the file config for display/export.
func (c *Config) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(c.File)
}
