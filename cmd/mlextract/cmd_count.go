// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCountCmd(opts *rootOptions) *cobra.Command {
	var logType string

	cmd := &cobra.Command{
		Use:   "count LOCATION...",
		Short: "Count the records in each location",
		Long: "Prints one line per location: the number of lines that start a record.\n" +
			"A location is a file path, s3://bucket/key, or - for stdin.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.newLoader(cmd)
			if err != nil {
				return err
			}
			for _, location := range args {
				n, err := l.Count(cmd.Context(), location, logType)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", n, location)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&logType, "log-type", "t", "", "log type to use (default: resolved from s3_key)")
	return cmd
}
