package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ks89/esp32-configurator/internal/batch"
	"github.com/ks89/esp32-configurator/internal/config"
	"github.com/ks89/esp32-configurator/internal/secrets/source"
)

func newBatchCmd(envVars config.EnvironmentVariables) *cobra.Command {
	var (
		manifest    string
		concurrency int
		region      string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render secrets.h for every device listed in a manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if manifest == "" {
				return errors.New("--manifest path is mandatory")
			}
			logger := zap.L()
			m, err := batch.LoadManifest(manifest)
			if err != nil {
				return err
			}
			report, err := batch.Run(cmd.Context(), m, batch.Options{
				Concurrency: concurrency,
				Logger:      logger,
				Open: func(spec string) (source.Source, error) {
					return source.Open(spec, source.Options{Logger: logger, Region: region})
				},
			})
			for _, res := range report.Results {
				status := "ok"
				if res.Err != nil {
					status = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s %s\n", status, res.Model, res.Path)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&manifest, "manifest", envVars.Manifest, "YAML manifest listing devices")
	cmd.Flags().IntVar(&concurrency, "concurrency", envVars.Concurrency, "parallel renders, 0 means number of CPUs")
	cmd.Flags().StringVar(&region, "region", envVars.AWSRegion, "AWS region for ssm: and s3:// sources")
	return cmd
}
