package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// defaultConfigYAML seeds a fresh config directory with a single in-memory
// profile so `dblite select ...` has something to talk to out of the box.
const defaultConfigYAML = `# dblite connection profiles, selected with --profile.
profiles:
  default:
    engine: sqlite
    descriptor: ":memory:"
  # local:
  #   engine: sqlite
  #   descriptor: ""   # omitted -> <data_dir>/local.db, see --data-dir

# Root directory for profiles that omit an explicit descriptor. Overridden
# by --data-dir or DBLITE_DATA_DIR.
# data_dir: ""
`

func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, err
	}

	configFile := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(configFile, []byte(defaultConfigYAML), 0o644); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("DBLITE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// profile names one connection: which engine to open it with, and the
// engine-specific descriptor. The CLI only supports string descriptors
// (paths, ":memory:", connection URIs); the map[string]any descriptor form
// pkg/postgres also accepts has no config-file representation here.
type profile struct {
	Engine     string `mapstructure:"engine"`
	Descriptor string `mapstructure:"descriptor"`
}

func lookupProfile(v *viper.Viper, name string) (profile, error) {
	var profiles map[string]profile
	if err := v.UnmarshalKey("profiles", &profiles); err != nil {
		return profile{}, fmt.Errorf("parsing profiles: %w", err)
	}
	p, ok := profiles[name]
	if !ok {
		return profile{}, fmt.Errorf("no profile named %q", name)
	}
	return p, nil
}
