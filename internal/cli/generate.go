// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/witnessreport/witness-report/internal/config"
)

func newGenerateCommand(root *rootOptions) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report from the configured template and evidence",
		Example: "  witness-report generate -c settings.yaml\n" +
			"  witness-report generate -t builtin:3 -e case.yaml -o Reports --colour Aqua --style extended",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(root.configPath, flags.override(cmd))
			if err != nil {
				return err
			}
			_, err = generateOnce(cmd.Context(), settings, root.logger, cmd.OutOrStdout())
			return err
		},
	}
	flags.bind(cmd)
	return cmd
}
