package format

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents formatting configuration options
type Config struct {
	// MaxBlankLines caps runs of blank lines kept from the source. Values
	// below 1 fall back to 1.
	MaxBlankLines int `yaml:"max_blank_lines"`
	// InlineAnnotations writes annotations on the declaration's own line
	// instead of the line above it.
	InlineAnnotations bool `yaml:"inline_annotations"`
}

// DefaultConfig returns the default formatting configuration
func DefaultConfig() *Config {
	return &Config{
		MaxBlankLines:     1,
		InlineAnnotations: false,
	}
}

// LoadConfig loads the format section of a dimc.yml file.
// If the file doesn't exist, returns the default configuration
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	wrapper := struct {
		Format *Config `yaml:"format"`
	}{Format: DefaultConfig()}

	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Format, nil
}

func (c *Config) maxBlankLines() int {
	if c.MaxBlankLines < 1 {
		return 1
	}
	return c.MaxBlankLines
}
