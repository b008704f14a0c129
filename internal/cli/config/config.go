package config

import (
	"fmt"
	"go/build/constraint"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/structarray/structarray/internal/compiler/deriver"
)

// FileName is the configuration file looked up in the working directory
const FileName = "structarray.yaml"

// EnvPrefix prefixes environment overrides, e.g. STRUCTARRAY_TO_ARRAY=false
const EnvPrefix = "STRUCTARRAY"

// Config represents the structarray configuration
type Config struct {
	// Output is the generated file name; empty means <package>_structarray.go
	Output        string   `mapstructure:"output"`
	ToArray       bool     `mapstructure:"to_array"`
	AsArrayMethod string   `mapstructure:"as_array_method"`
	ToArrayMethod string   `mapstructure:"to_array_method"`
	BuildTags     string   `mapstructure:"build_tags"`
	MaxJobs       int      `mapstructure:"max_jobs"`
	Types         []string `mapstructure:"types"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	opts := deriver.DefaultOptions()
	return &Config{
		ToArray:       opts.ToArray,
		AsArrayMethod: opts.AsArrayMethod,
		ToArrayMethod: opts.ToArrayMethod,
		MaxJobs:       runtime.NumCPU(),
		Types:         []string{},
	}
}

// Load loads the configuration from structarray.yaml in the working
// directory, falling back to defaults when the file does not exist.
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads the configuration from an explicit path. The file must exist.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	def := Default()
	v.SetDefault("output", def.Output)
	v.SetDefault("to_array", def.ToArray)
	v.SetDefault("as_array_method", def.AsArrayMethod)
	v.SetDefault("to_array_method", def.ToArrayMethod)
	v.SetDefault("build_tags", def.BuildTags)
	v.SetDefault("max_jobs", def.MaxJobs)
	v.SetDefault("types", def.Types)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Write saves cfg as YAML at path, which must not already exist
func Write(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	v := viper.New()
	v.Set("output", cfg.Output)
	v.Set("to_array", cfg.ToArray)
	v.Set("as_array_method", cfg.AsArrayMethod)
	v.Set("to_array_method", cfg.ToArrayMethod)
	v.Set("build_tags", cfg.BuildTags)
	v.Set("max_jobs", cfg.MaxJobs)
	if len(cfg.Types) > 0 {
		v.Set("types", cfg.Types)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DeriverOptions returns the method options carried by the configuration
func (c *Config) DeriverOptions() deriver.Options {
	return deriver.Options{
		AsArrayMethod: c.AsArrayMethod,
		ToArrayMethod: c.ToArrayMethod,
		ToArray:       c.ToArray,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.DeriverOptions().Validate(); err != nil {
		return err
	}
	if c.Output != "" {
		if filepath.Base(c.Output) != c.Output {
			return fmt.Errorf("output must be a file name, not a path: %s", c.Output)
		}
		if !strings.HasSuffix(c.Output, ".go") {
			return fmt.Errorf("output must end in .go, got: %s", c.Output)
		}
		if strings.HasSuffix(c.Output, "_test.go") {
			return fmt.Errorf("output must not be a test file, got: %s", c.Output)
		}
	}
	if err := ValidateBuildTags(c.BuildTags); err != nil {
		return err
	}
	for _, name := range c.Types {
		if !token.IsIdentifier(name) {
			return fmt.Errorf("types entry %q is not a valid Go identifier", name)
		}
	}
	if c.MaxJobs < 1 {
		return fmt.Errorf("max_jobs must be at least 1, got: %d", c.MaxJobs)
	}
	return nil
}

// ValidateBuildTags checks that tags is a //go:build expression such as
// "linux && !cgo". An empty value means no constraint.
func ValidateBuildTags(tags string) error {
	if tags == "" {
		return nil
	}
	if strings.ContainsAny(tags, "\r\n") {
		return fmt.Errorf("build_tags must be a single line, got: %q", tags)
	}
	if _, err := constraint.Parse("//go:build " + tags); err != nil {
		return fmt.Errorf("build_tags %q is not a valid //go:build expression (combine tags with && or ||): %w", tags, err)
	}
	return nil
}
