package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultStoreURL is the charm store API root.
	DefaultStoreURL = "https://api.jujucharms.com/charmstore/v5"
	// DefaultIndexURL is the root of the layer and interface index.
	DefaultIndexURL = "https://juju.github.io/layer-index"

	// ConfigFileName is the name of the optional settings file under the
	// user's config directory.
	ConfigFileName = "pull-source.toml"
)

// Environment variables consulted for the download directory when none is
// given on the command line.
const (
	EnvJujuRepository = "JUJU_REPOSITORY"
	EnvLayerPath      = "LAYER_PATH"
	EnvInterfacePath  = "INTERFACE_PATH"
)

const (
	keyStoreURL = "store_url"
	keyIndexURL = "index_url"
)

// File is the on-disk representation of pull-source.toml.
type File struct {
	StoreURL string `toml:"store_url,omitempty"`
	IndexURL string `toml:"index_url,omitempty"`
}

// Settings holds the resolved configuration. Precedence, highest first:
// CLI flags > environment > config file > defaults.
type Settings struct {
	StoreURL string `mapstructure:"store_url"`
	IndexURL string `mapstructure:"index_url"`

	v *viper.Viper
}

// Lookup returns the resolved value of one of the directory environment
// variables (EnvJujuRepository, EnvLayerPath, EnvInterfacePath), or "" if
// it is unset.
func (s *Settings) Lookup(key string) string {
	return s.v.GetString(strings.ToLower(key))
}

// Load resolves settings. An empty path means the default config file,
// which may be absent; an explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	if path != "" {
		return load(path, true, flags)
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return load(path, false, flags)
}

// DefaultConfigPath returns ~/.config/charm-tools/pull-source.toml (or the
// platform equivalent).
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining config directory: %w", err)
	}
	return filepath.Join(dir, "charm-tools", ConfigFileName), nil
}

// load is the internal implementation that accepts an explicit path,
// making it testable without touching the real config directory.
func load(path string, required bool, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Lowest priority: defaults
	v.SetDefault(keyStoreURL, DefaultStoreURL)
	v.SetDefault(keyIndexURL, DefaultIndexURL)

	// Config file
	f, err := ReadFile(path)
	switch {
	case err == nil:
		if err := v.MergeConfigMap(f.values()); err != nil {
			return nil, fmt.Errorf("merging %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, err
	}

	// Environment
	for key, env := range map[string]string{
		keyStoreURL:                        "CHARM_STORE_URL",
		keyIndexURL:                        "LAYER_INDEX",
		strings.ToLower(EnvJujuRepository): EnvJujuRepository,
		strings.ToLower(EnvLayerPath):      EnvLayerPath,
		strings.ToLower(EnvInterfacePath):  EnvInterfacePath,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	// Highest priority: CLI flags
	if flags != nil {
		for key, name := range map[string]string{
			keyStoreURL: "store-url",
			keyIndexURL: "index-url",
		} {
			if fl := flags.Lookup(name); fl != nil {
				if err := v.BindPFlag(key, fl); err != nil {
					return nil, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	s := &Settings{v: v}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	s.StoreURL = strings.TrimSuffix(s.StoreURL, "/")
	s.IndexURL = strings.TrimSuffix(s.IndexURL, "/")

	return s, nil
}

// ReadFile decodes a pull-source.toml. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f := &File{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

func (f *File) values() map[string]any {
	m := map[string]any{}
	if f.StoreURL != "" {
		m[keyStoreURL] = f.StoreURL
	}
	if f.IndexURL != "" {
		m[keyIndexURL] = f.IndexURL
	}
	return m
}
