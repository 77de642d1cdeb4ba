// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/gemaraproj/multiline-loader/internal/config"
	"github.com/gemaraproj/multiline-loader/internal/loader"
	"github.com/gemaraproj/multiline-loader/internal/logging"
	"github.com/gemaraproj/multiline-loader/internal/multiline/sources"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	env        config.Env
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{env: config.LoadEnv()}

	cmd := &cobra.Command{
		Use:   "mlextract",
		Short: "Reconstruct multiline log records and decode them into fields",
		Long: "mlextract groups raw log lines into records, starting a new record at every\n" +
			"line that matches a log type's multiline_firstline pattern, and decodes each\n" +
			"record with the log type's log_pattern.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Init(logging.ParseLevel(opts.logLevel), opts.logFormat, cmd.ErrOrStderr())
		},
	}
	cmd.Version = version

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", opts.env.ConfigPath, "log type configuration file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.env.LogLevel, "debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", opts.env.LogFormat, "text or json")

	cmd.AddCommand(newCountCmd(opts))
	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

// newLoader loads the configuration and wires the sources a location may
// name: stdin, S3 objects and local files.
func (o *rootOptions) newLoader(cmd *cobra.Command) (*loader.Loader, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return loader.New(cfg,
		sources.NewStdinSource(cmd.InOrStdin()),
		sources.NewS3SourceFromSettings(o.env.S3),
		sources.NewFileSource(),
	), nil
}
