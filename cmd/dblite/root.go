package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quilldb/dblite/internal/paths"

	_ "github.com/quilldb/dblite/pkg/embedded"
	_ "github.com/quilldb/dblite/pkg/postgres"
)

const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

var (
	flagConfigDir string
	flagDataDir   string
	flagProfile   string
	flagJSON      bool

	cfg *viper.Viper

	// configDataDir holds the data_dir value viper resolves in
	// PersistentPreRunE: DBLITE_DATA_DIR when set (viper's DBLITE_ env
	// binding), else config.yaml's data_dir. resolveDataDir passes it on as
	// the config value.
	configDataDir string
)

var rootCmd = &cobra.Command{
	Use:           "dblite",
	Short:         "Drive dblite connection profiles from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return fmt.Errorf("resolving config directory: %w", err)
		}
		v, err := loadConfig(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = v
		configDataDir = v.GetString("data_dir")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding per-profile embedded database files (default: ./.dblite-db)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "default", "named connection profile to use")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
}

// resolveDataDir returns the directory holding per-profile embedded database
// files, following the effective precedence chain: --data-dir flag >
// DBLITE_DATA_DIR env > config.yaml data_dir > .dblite-db under the working
// directory. The env var wins over the file because viper reads it into
// configDataDir.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}
