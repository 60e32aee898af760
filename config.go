package bsoncodec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config is the user-facing codec configuration. Key fields are pointers so "not set"
// (use the default) can be told apart from an explicit empty value.
type Config struct {
	TypeKey *string `yaml:"type-key" json:"type-key"`
	SeqKey  *string `yaml:"seq-key" json:"seq-key"` // empty disables the sequence key
	Compose string  `yaml:"compose" json:"compose"` // flat or nested
	Encoder string  `yaml:"encoder" json:"encoder"` // native or core
}

// LoadConfig reads a configuration file. Files ending in .json are parsed as JSON,
// everything else as YAML.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("bsoncodec: parse config %s: %w", path, err)
	}
	if _, err := cfg.Settings(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Backend(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ConfigFromProps builds a Config from connection parameters. Unknown keys are ignored.
func ConfigFromProps(props map[string]string) Config {
	var cfg Config
	if v, ok := props["type-key"]; ok {
		cfg.TypeKey = Ptr(v)
	}
	if v, ok := props["seq-key"]; ok {
		cfg.SeqKey = Ptr(v)
	}
	cfg.Compose = props["compose"]
	cfg.Encoder = props["encoder"]
	return cfg
}

// Settings returns the envelope settings, filling unset keys with defaults.
func (c Config) Settings() (Settings, error) {
	s := DefaultSettings()
	if c.TypeKey != nil {
		if *c.TypeKey == "" {
			return s, fmt.Errorf("%w: empty type-key", ErrMissingMetadata)
		}
		s.TypeKey = *c.TypeKey
	}
	if c.SeqKey != nil {
		s.SeqKey = *c.SeqKey
	}
	mode, err := ParseMode(c.Compose)
	if err != nil {
		return s, err
	}
	s.Mode = mode
	return s, nil
}

// Backend returns the encoding backend.
func (c Config) Backend() (Backend, error) {
	return ParseBackend(c.Encoder)
}

// Options converts the configuration into Codec options.
func (c Config) Options() ([]Option, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	b, err := c.Backend()
	if err != nil {
		return nil, err
	}
	return []Option{WithSettings(s), WithBackend(b)}, nil
}
