// SPDX-License-Identifier: Apache-2.0

// Package cli wires the witness-report commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logFormat  string
	logLevel   string

	logger *slog.Logger
}

// NewRootCommand builds the witness-report command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "witness-report",
		Short: "Generate forensic expert witness reports from tagged case evidence",
		Long: "witness-report inserts a styled table for every tagged evidence file under a heading " +
			"of a report template and writes the result as a new document.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "settings file (YAML)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newGenerateCommand(opts),
		newLocateCommand(opts),
		newTemplatesCommand(opts),
		newServeCommand(opts, version),
		newWatchCommand(opts),
	)
	return cmd
}

// newLogger logs to w, which is stderr for the real binary so stdout stays
// free for command output and the MCP stdio transport.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
