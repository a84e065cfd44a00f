// Package config maps viper settings (flags, env, config file) onto the
// analyzer and renderer configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hara602/straceAnalyzer/internal/aggregate"
	"github.com/Hara602/straceAnalyzer/internal/analyzer"
	"github.com/Hara602/straceAnalyzer/internal/output"
	"github.com/Hara602/straceAnalyzer/internal/parser"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "STRACE_ANALYZER"
	FileName  = ".strace-analyzer"

	KeyFormat     = "format"
	KeyAgePolicy  = "age-policy"
	KeyRollUp     = "rollup"
	KeyBoundary   = "boundary"
	KeyTimestamps = "timestamps"
	KeyWorkers    = "workers"
	KeyCwd        = "cwd"
	KeyDB         = "db"
	KeyDebug      = "debug"
	KeyVerbose    = "verbose"
)

// Settings is the resolved configuration of one invocation.
type Settings struct {
	Engine  analyzer.Config
	Format  string
	DB      string
	Debug   bool
	Verbose bool
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	def := analyzer.DefaultConfig()
	v.SetDefault(KeyFormat, output.FormatTable)
	v.SetDefault(KeyAgePolicy, def.Age.String())
	v.SetDefault(KeyRollUp, def.RollUp.String())
	v.SetDefault(KeyBoundary, def.Boundary)
	v.SetDefault(KeyTimestamps, def.Timestamps.String())
	v.SetDefault(KeyWorkers, def.Workers)
	v.SetDefault(KeyCwd, "")
	v.SetDefault(KeyDB, "strace-analyzer.db")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyVerbose, false)
}

// ReadFile loads the config file. Without an explicit path it looks for
// .strace-analyzer.yaml in the home and current directories; a missing
// default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(FileName)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", filepath.Clean(path), err)
	}
	return nil
}

// Load resolves and validates the settings.
func Load(v *viper.Viper) (Settings, error) {
	cfg := analyzer.DefaultConfig()
	var err error
	if cfg.Age, err = aggregate.ParseAgePolicy(v.GetString(KeyAgePolicy)); err != nil {
		return Settings{}, err
	}
	if cfg.RollUp, err = aggregate.ParseRollUp(v.GetString(KeyRollUp)); err != nil {
		return Settings{}, err
	}
	if cfg.Timestamps, err = parser.ParseTimestampMode(v.GetString(KeyTimestamps)); err != nil {
		return Settings{}, err
	}
	cfg.Boundary = v.GetString(KeyBoundary)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.InitialCwd = v.GetString(KeyCwd)
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}

	s := Settings{
		Engine:  cfg,
		Format:  v.GetString(KeyFormat),
		DB:      v.GetString(KeyDB),
		Debug:   v.GetBool(KeyDebug),
		Verbose: v.GetBool(KeyVerbose),
	}
	if !output.Supported(s.Format) {
		return Settings{}, fmt.Errorf("unknown format %q, want one of %v", s.Format, output.Formats())
	}
	return s, nil
}
