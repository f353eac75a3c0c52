package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	configFlagName  = "config"
	configFlagShort = "c"
	configFlagUsage = "Path to a YAML, JSON or TOML configuration file. When omitted, FEISHU_* environment variables are used."

	envFileFlagName  = "env-file"
	envFileFlagUsage = "Path to a .env file loaded before reading the environment. Can be specified multiple times."

	logFileFlagName  = "log-file"
	logFileFlagUsage = "Log file used when the configuration does not set log.file"
)

// flags collects the options shared by every command that builds an Application.
type flags struct {
	configPath string
	envFiles   []string
	logFile    string
}

// addFlags registers the shared flags on cmd.
func (f *flags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, configFlagName, configFlagShort, "", configFlagUsage)
	cmd.Flags().StringArrayVar(&f.envFiles, envFileFlagName, nil, envFileFlagUsage)
	cmd.Flags().StringVar(&f.logFile, logFileFlagName, filepath.Join(os.TempDir(), "feishu.log"), logFileFlagUsage)
}
