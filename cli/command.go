// Package cli holds the shared cobra plumbing for the velocity binary:
// standard flags, logger wiring, styled help and error presentation.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OptimiLabs/velocity-sub007/config"
	"github.com/OptimiLabs/velocity-sub007/logging"
)

// CommandOptions holds common options for velocity commands.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard velocity flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to velocity.yml config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger creates a logger based on command flags.
func GetLogger(cmd *cobra.Command) *logrus.Logger {
	entry := logging.NewLogger("velocity-cli")
	logger := entry.Logger

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// GetOptions extracts common options from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// InitConfig resolves the configuration file path: the --config flag when
// set, otherwise the nearest velocity.yml up the directory tree. An empty
// result is not an error; commands fall back to defaults.
func InitConfig(configFile string) (string, error) {
	if configFile != "" {
		return configFile, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	foundConfigFile, err := config.FindConfigFile(cwd)
	if err != nil {
		return "", nil
	}

	return foundConfigFile, nil
}
