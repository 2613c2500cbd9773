// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/internal/config"
	"github.com/xkilldash9x/beamline-cli/internal/observability"
)

// NewRootCommand builds a fresh root command tree. Each invocation gets its
// own viper instance and config so flag state never leaks between runs.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	cfg := config.NewDefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "beamline-cli",
		Short: "Beamline simulates optical sceneries as a scene graph.",
		Long: `Beamline runs energy-flow, ray-trace and ghost-focus analyses over
an optical scene graph and renders the results as a report.`,
		// Version is dynamically set at build time. See cmd/version.go.
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// This function runs before any command, setting up config and logging.
			v, err := initializeViper(cfgFile)
			if err != nil {
				return err
			}

			loaded, err := config.NewConfigFromViper(v)
			if err != nil {
				// Initialize a fallback logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "beamline-cli",
				})
				return fmt.Errorf("failed to load config: %w", err)
			}
			*cfg = *loaded

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting beamline-cli", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./beamline.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newAnalyzeCommand(cfg))
	return rootCmd
}

// Execute builds the command tree and runs it under the given context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeViper reads the config file and BEAMLINE_* environment variables.
func initializeViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("beamline")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BEAMLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return v, nil
}
