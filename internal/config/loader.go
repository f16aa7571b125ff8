package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "LEGIS"

// Sentinel errors returned by Load, wrapped with the underlying cause.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigParseError   = errors.New("config file could not be parsed")
	ErrConfigValidation   = errors.New("config validation failed")
)

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Get returns the configuration most recently produced by Load, or nil.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

func setGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

// loadOptions collects LoadOption settings.
type loadOptions struct {
	configPath  string
	searchPaths []string
	overrides   map[string]interface{}
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithConfigPath loads an explicit YAML file.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// WithSearchPaths looks for config.yaml in each directory in order.
func WithSearchPaths(paths ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = append(o.searchPaths, paths...) }
}

// WithOverrides sets keys after file and environment resolution.  CLI flags
// use it so that a flag always beats both.
func WithOverrides(overrides map[string]interface{}) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{}, len(overrides))
		}
		for k, v := range overrides {
			o.overrides[k] = v
		}
	}
}

// newViper builds a pre-configured Viper instance: YAML file type, LEGIS_ env
// prefix, automatic env binding, and a key replacer that maps "." → "_" so
// that "database.postgres.host" resolves to "LEGIS_DATABASE_POSTGRES_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v)
	return v
}

// Load resolves configuration from an optional YAML file, LEGIS_* environment
// variables and explicit overrides, applies defaults for unset fields, and
// validates the result.  Without a path or search paths only the environment
// is consulted.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	switch {
	case o.configPath != "":
		v.SetConfigFile(o.configPath)
		if err := readConfig(v, o.configPath); err != nil {
			return nil, err
		}
	case len(o.searchPaths) > 0:
		v.SetConfigName("config")
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
		if err := readConfig(v, strings.Join(o.searchPaths, ",")); err != nil {
			return nil, err
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}
	setGlobal(cfg)
	return cfg, nil
}

func readConfig(v *viper.Viper, where string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrConfigFileNotFound, where, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrConfigParseError, where, err)
}

// LoadFromFile is shorthand for Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config entirely from LEGIS_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	LEGIS_<SECTION>_<FIELD>   e.g.  LEGIS_PIPELINE_WORKERS, LEGIS_DATABASE_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return Load()
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes on disk.  Only the log level is applied at runtime
// by the binaries; other fields take effect on restart.
//
// A change that fails to parse or validate is reported to onError (if
// non-nil) and onChange is not called.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		setGlobal(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on any error.  Intended for main().
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
