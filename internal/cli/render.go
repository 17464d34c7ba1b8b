package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/config"
	"github.com/ks89/esp32-configurator/internal/output"
	"github.com/ks89/esp32-configurator/internal/renderer"
	"github.com/ks89/esp32-configurator/internal/secrets"
	"github.com/ks89/esp32-configurator/internal/secrets/source"
)

type renderFlags struct {
	model           string
	source          string
	destination     string
	fileName        string
	region          string
	requireMQTTPort bool
	stdout          bool
}

func (f *renderFlags) register(cmd *cobra.Command, envVars config.EnvironmentVariables) {
	cmd.Flags().StringVar(&f.model, "model", envVars.Model, "unique model name (MODEL define)")
	cmd.Flags().StringVar(&f.source, "source", envVars.Source, "secrets source: file path, env:PREFIX, ssm:/path or s3://bucket/key")
	cmd.Flags().StringVar(&f.region, "region", envVars.AWSRegion, "AWS region for ssm: and s3:// sources")
	cmd.Flags().BoolVar(&f.requireMQTTPort, "require-mqtt-port", envVars.RequireMQTTPort, "fail when mqtt_port is absent instead of disabling SSL")
}

func (f *renderFlags) check() error {
	if f.model == "" {
		return errors.New("--model name is mandatory")
	}
	if f.source == "" {
		return errors.New("--source is mandatory")
	}
	return nil
}

func (f *renderFlags) parseOptions(logger *zap.Logger) []secrets.Option {
	opts := []secrets.Option{secrets.WithLogger(logger)}
	if f.requireMQTTPort {
		opts = append(opts, secrets.RequireMQTTPort())
	}
	return opts
}

// loadValues opens the source, loads the record and validates it.
func (f *renderFlags) loadValues(cmd *cobra.Command, logger *zap.Logger) (secrets.Values, error) {
	src, err := source.Open(f.source, source.Options{Logger: logger, Region: f.region})
	if err != nil {
		return secrets.Values{}, err
	}
	logger.Info("Loading secrets", zap.String("source", src.String()), zap.String("model", f.model))

	rec, err := src.Load(cmd.Context())
	if err != nil {
		return secrets.Values{}, err
	}
	return secrets.Parse(rec, secrets.BuildContext{ModelName: f.model}, f.parseOptions(logger)...)
}

func newRenderCmd(envVars config.EnvironmentVariables) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render secrets.h for one device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := zap.L().Named("render")
			if err := f.check(); err != nil {
				return err
			}
			if f.destination == "" && !f.stdout {
				return errors.New("--destination path is mandatory unless --stdout is set")
			}

			values, err := f.loadValues(cmd, logger)
			if err != nil {
				return err
			}
			h, err := renderer.RenderHeader(values)
			if err != nil {
				return err
			}

			if f.stdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), h.String())
				return err
			}
			path, err := output.WriteFile(f.destination, f.fileName, h)
			if err != nil {
				return err
			}
			logger.Info("Header written",
				zap.String("path", path),
				zap.Bool("ssl", values.SSL()),
				zap.String("sha256", h.Checksum()),
			)
			return nil
		},
	}
	f.register(cmd, envVars)
	cmd.Flags().StringVar(&f.destination, "destination", envVars.Destination, "directory of the sensor or device sketch where secrets.h is written")
	cmd.Flags().StringVar(&f.fileName, "file-name", envVars.FileName, "header file name")
	cmd.Flags().BoolVar(&f.stdout, "stdout", false, "print the header instead of writing it")
	return cmd
}
