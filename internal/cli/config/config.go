package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileNames are the accepted names of the project configuration file
var FileNames = []string{"dimc.yml", "dimc.yaml"}

// Config represents the dimc project configuration
type Config struct {
	Source string      `mapstructure:"source"`
	Build  BuildConfig `mapstructure:"build"`

	// Dir is the directory the configuration was loaded from. Relative
	// paths are resolved against it.
	Dir string `mapstructure:"-"`
}

// BuildConfig represents code generation settings
type BuildConfig struct {
	OutputDir         string `mapstructure:"output_dir"`
	Package           string `mapstructure:"package"`
	RationalExponents bool   `mapstructure:"rational_exponents"`
}

// Load loads the configuration from dimc.yml or dimc.yaml in the working
// directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration of the project in dir. Missing files
// leave the defaults in place; DIMC_* environment variables override both,
// e.g. DIMC_BUILD_PACKAGE.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("source", "units.dim")
	v.SetDefault("build.output_dir", "build/generated")
	v.SetDefault("build.package", "units")
	v.SetDefault("build.rational_exponents", false)

	v.SetConfigName("dimc")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("DIMC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Dir = dir

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SourcePath returns the definition file path resolved against Dir
func (c *Config) SourcePath() string {
	return c.resolve(c.Source)
}

// OutputPath returns the generated code directory resolved against Dir
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.OutputDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// InProject checks if the current directory holds a dimc configuration
func InProject() bool {
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up from start looking for dimc.yml or dimc.yaml
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a dimc project (no dimc.yml found above %s)", start)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(cfg.Build.OutputDir) == "" {
		return fmt.Errorf("build.output_dir must not be empty")
	}
	pkg := cfg.Build.Package
	if !token.IsIdentifier(pkg) || pkg != strings.ToLower(pkg) {
		return fmt.Errorf("build.package must be a lower-case Go identifier, got: %q", pkg)
	}
	return nil
}
