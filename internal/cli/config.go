// Package cli provides utility functions shared by the command line tools.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InitViperConfig initializes the Viper configuration for a command.
//
// The configuration file is either the one passed with --config, or a file named after the command
// in the current directory, the system configuration directories or next to the executable.
func InitViperConfig(cmdName string, cmd *cobra.Command, vip *viper.Viper) error {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName(cmdName)
		for _, dir := range configDirs(cmdName) {
			vip.AddConfigPath(dir)
		}
	}

	err := vip.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		slog.Info("No configuration file, using defaults, environment and flags only", "error", notFound)
	case err != nil:
		return fmt.Errorf("invalid configuration file: %w", err)
	default:
		slog.Info("Using configuration file", "file", vip.ConfigFileUsed())
	}

	vip.SetEnvPrefix(cmdName)
	vip.AutomaticEnv()

	// AutomaticEnv alone does not make nested keys visible to Unmarshal, so every prefixed
	// variable is bound explicitly. See https://github.com/spf13/viper/pull/1429.
	prefix := strings.ToUpper(strings.ReplaceAll(cmdName, "-", "_")) + "_"
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix), "_", "."))
		if err := vip.BindEnv(key, name); err != nil {
			return fmt.Errorf("could not bind environment variable %s: %w", name, err)
		}
	}

	return nil
}

// configDirs lists the directories searched for a configuration file, by order of precedence.
func configDirs(cmdName string) []string {
	dirs := []string{"."}
	if runtime.GOOS == "windows" {
		dirs = append(dirs, filepath.Join(os.Getenv("ProgramData"), cmdName))
	} else {
		dirs = append(dirs, filepath.Join("/etc", cmdName), filepath.Join("/usr/local/etc", cmdName))
	}

	exe, err := os.Executable()
	if err != nil {
		slog.Warn("Failed to get current executable path, not adding it as a config dir", "error", err)
		return dirs
	}
	return append(dirs, filepath.Dir(exe))
}

// InstallConfigFlag adds a config flag to the command.
func InstallConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().String("config", "", "use a specific configuration file")
}

// InstallEnvFileFlag adds a flag selecting the dotenv file to load before reading the environment.
func InstallEnvFileFlag(cmd *cobra.Command, defaultPath string) *string {
	return cmd.PersistentFlags().String("env-file", defaultPath, "dotenv file exporting credentials and settings, ignored when missing")
}

// LoadEnvFile exports the variables of a dotenv file into the process environment.
//
// Variables already set in the environment win over the file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No dotenv file", "path", path)
			return nil
		}
		return fmt.Errorf("could not load dotenv file %q: %w", path, err)
	}

	slog.Info("Loaded dotenv file", "path", path)
	return nil
}

// Unmarshal decodes the viper configuration into cfg.
func Unmarshal(vip *viper.Viper, cfg any) error {
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))

	if err := vip.Unmarshal(cfg, hook); err != nil {
		return fmt.Errorf("unable to decode configuration into struct: %w", err)
	}
	return nil
}
