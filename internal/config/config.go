// Package config loads polyctl settings from defaults, an optional YAML
// file, a .env file and POLY_ environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix prefixes every environment variable read by Load. Nested keys
// are separated by a double underscore, e.g. POLY_SERVER__ADDR.
const EnvPrefix = "POLY_"

// Config is the complete polyctl configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	API    APIConfig    `koanf:"api"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig configures the browsable demo server.
type ServerConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
	// Router selects the router the handler is mounted on.
	Router string `koanf:"router"`
}

// Routers lists the accepted values of server.router.
var Routers = []string{"stdlib", "chi", "gorilla", "echo", "gin", "fiber"}

// APIConfig configures the dispatcher and its pages.
type APIConfig struct {
	Title            string `koanf:"title"`
	Discriminator    string `koanf:"discriminator"`
	RejectTypeChange bool   `koanf:"reject_type_change"`
	// Version is written to generated OpenAPI documents.
	Version string `koanf:"version"`
	// OpenAPIPath is where the server exposes its OpenAPI document.
	OpenAPIPath string `koanf:"openapi_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int `koanf:"verbosity"`
}

// Defaults returns the values used for every unset setting.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Prefix: "/blogs", Router: "stdlib"},
		API: APIConfig{
			Title:         "Blogs",
			Discriminator: "resourcetype",
			Version:       "0.1.0",
			OpenAPIPath:   "/openapi.json",
		},
	}
}

// Options selects the sources read by Load.
type Options struct {
	// File is an optional YAML configuration file.
	File string
	// EnvFile is an optional dotenv file; a missing file is ignored.
	EnvFile string
}

// Load reads the configuration.
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	k := koanf.New(".")
	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that defaults cannot repair.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.Server.Prefix, "/") {
		return fmt.Errorf("server.prefix must start with '/', got %q", c.Server.Prefix)
	}
	if !slices.Contains(Routers, c.Server.Router) {
		return fmt.Errorf("server.router must be one of %s, got %q", strings.Join(Routers, ", "), c.Server.Router)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

// envKey maps POLY_API__REJECT_TYPE_CHANGE to api.reject_type_change.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
