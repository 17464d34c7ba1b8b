// Package cli wires the esp32-configurator commands.
package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/config"
	"github.com/ks89/esp32-configurator/internal/secrets"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

type rootFlags struct {
	logLevel  string
	logFormat string
}

// NewRootCmd returns the root command. Flag defaults come from ESP32_CONFIGURATOR_* variables.
func NewRootCmd() *cobra.Command {
	envVars, envErr := config.GetEnvironmentVariables[config.EnvironmentVariables]()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "esp32-configurator",
		Short:         "Render device secrets into the firmware secrets.h header",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			logger, err := config.NewLogger(flags.logLevel, flags.logFormat)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", envVars.LogLevel, "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", envVars.LogFormat, "log format: console|json")

	root.AddCommand(
		newRenderCmd(envVars),
		newValidateCmd(envVars),
		newBatchCmd(envVars),
		newVersionCmd(),
	)
	return root
}

// LogError logs err, expanding secrets field errors into one entry per field.
// Field errors never carry secret values.
func LogError(logger *zap.Logger, err error) {
	for _, e := range multierr.Errors(err) {
		var fe *secrets.FieldError
		if errors.As(e, &fe) {
			logger.Error("Invalid secrets field",
				zap.String("field", fe.Field),
				zap.String("kind", fe.Err.Error()),
				zap.String("reason", fe.Reason),
			)
			continue
		}
		logger.Error("Command failed", zap.Error(e))
	}
}
