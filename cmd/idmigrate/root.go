package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/idmigrate/version"
)

// errReported is returned by commands whose failure was already printed in
// the run summary; main exits 1 without printing it again.
var errReported = errors.New("reported")

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Migrate directory identities into a relational store",
		Version:       version.GetVersionInfo().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config.yml")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newMigrateOneCommand(opts),
		newVerifyCommand(opts),
		newSchemaCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.GetVersionInfo().String())
		},
	}
}
