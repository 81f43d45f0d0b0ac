// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/witnessreport/witness-report/internal/config"
	"github.com/witnessreport/witness-report/internal/watch"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate a report and regenerate it whenever the evidence changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(root.configPath, flags.override(cmd))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if _, err := generateOnce(ctx, settings, root.logger, out); err != nil {
				root.logger.Error("initial report failed", "error", err)
			}

			w, err := watch.New(root.logger, settings.OutputDir)
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.AddSource(settings.Evidence.Path); err != nil {
				return err
			}

			debounce := time.Duration(settings.Debounce()) * time.Millisecond
			root.logger.Info("watching evidence", "path", settings.Evidence.Path, "debounce", debounce)
			return w.Run(ctx, debounce, func(ctx context.Context, _ []watch.Event) error {
				_, err := generateOnce(ctx, settings, root.logger, out)
				return err
			})
		},
	}
	flags.bind(cmd)
	return cmd
}
