// Package config loads the analyzer configuration from defaults, a YAML
// file, JSLEE_ environment variables & command line flags, in increasing
// order of precedence.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benbjohnson/jslee"
	"github.com/benbjohnson/jslee/checks"
)

// DefaultFilename is the config file loaded from the working directory when
// no file is given explicitly.
const DefaultFilename = "jslee.yaml"

// EnvPrefix is the prefix of environment variables overriding the config.
const EnvPrefix = "JSLEE_"

// Default values.
const (
	DefaultSearcher    = "dfs"
	DefaultLogLevel    = "warn"
	DefaultConcurrency = 4
)

// Config represents the analyzer configuration.
type Config struct {
	MaxStates      int    `koanf:"max_states"`
	MaxBlockVisits int    `koanf:"max_block_visits"`
	Searcher       string `koanf:"searcher"`
	Seed           int64  `koanf:"seed"`
	Concurrency    int    `koanf:"concurrency"`

	Checks ChecksConfig `koanf:"checks"`
	Log    LogConfig    `koanf:"log"`

	// Path of the config file that was loaded, if any.
	Filename string `koanf:"-"`
}

// ChecksConfig selects the checks to run.
type ChecksConfig struct {
	Disabled []string `koanf:"disabled"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// defaults returns the default key values.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"max_states":       jslee.DefaultMaxStates,
		"max_block_visits": jslee.DefaultMaxBlockVisits,
		"searcher":         DefaultSearcher,
		"seed":             0,
		"concurrency":      DefaultConcurrency,
		"checks.disabled":  []string{},
		"log.level":        DefaultLogLevel,
		"log.development":  false,
	}
}

// Load loads the configuration. If filename is blank, jslee.yaml is loaded
// from the working directory when present. Only flags that were explicitly
// set override other sources. Flags may be nil.
func Load(filename string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if filename == "" {
		if _, err := os.Stat(DefaultFilename); err == nil {
			filename = DefaultFilename
		}
	}
	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", filename)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "load flags")
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	c.Filename = filename

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"max-states":       "max_states",
	"max-block-visits": "max_block_visits",
	"searcher":         "searcher",
	"seed":             "seed",
	"concurrency":      "concurrency",
	"disable":          "checks.disabled",
	"log-level":        "log.level",
}

// envKey maps JSLEE_LOG_LEVEL to log.level & JSLEE_MAX_STATES to max_states.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"log_", "checks_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if c.MaxStates <= 0 {
		return errors.Errorf("max_states must be positive: %d", c.MaxStates)
	} else if c.MaxBlockVisits <= 0 {
		return errors.Errorf("max_block_visits must be positive: %d", c.MaxBlockVisits)
	} else if c.Concurrency <= 0 {
		return errors.Errorf("concurrency must be positive: %d", c.Concurrency)
	}

	if _, err := jslee.NewSearcher(c.Searcher, c.Seed); err != nil {
		return errors.Wrap(err, "searcher")
	}
	if err := checks.Validate(c.Checks.Disabled); err != nil {
		return errors.Wrap(err, "checks.disabled")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// Analyzer returns an analyzer running the enabled checks with the
// configured bounds & search strategy. Returns an error if the searcher name
// is invalid.
func (c *Config) Analyzer(logger *zap.Logger) (*jslee.Analyzer, error) {
	if _, err := jslee.NewSearcher(c.Searcher, c.Seed); err != nil {
		return nil, errors.Wrap(err, "searcher")
	}

	a := jslee.NewAnalyzer(
		checks.Factory(c.Checks.Disabled...),
		jslee.WithMaxStates(c.MaxStates),
		jslee.WithMaxBlockVisits(c.MaxBlockVisits),
	)
	a.Logger = logger
	a.Searcher = func() jslee.Searcher {
		s, err := jslee.NewSearcher(c.Searcher, c.Seed)
		if err != nil {
			return jslee.NewDFSSearcher()
		}
		return s
	}
	return a, nil
}

// Logger returns a logger at the configured level. Development loggers are
// human readable & production loggers emit JSON.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
