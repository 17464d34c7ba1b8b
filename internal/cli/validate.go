package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/config"
)

func newValidateCmd(envVars config.EnvironmentVariables) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a secrets source renders for a model, without writing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.check(); err != nil {
				return err
			}
			values, err := f.loadValues(cmd, zap.L().Named("validate"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "model=%s ssl=%t mqtt_port=%d\n",
				values.Model, values.SSL(), values.EffectiveMQTTPort())
			return err
		},
	}
	f.register(cmd, envVars)
	return cmd
}
