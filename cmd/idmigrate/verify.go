package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/idmigrate/bootstrap"
)

func newVerifyCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored identities against the source",
		Long: `Compare every source identity with its stored counterpart. Plaintext
passwords must verify against the stored bcrypt hash and existing hashes must
be unchanged. Any mismatch makes the command exit with status 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, root)
		},
	}
}

func runVerify(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	rt, err := newRuntime(cfg, true, bootstrap.WithOutput(out))
	if err != nil {
		return err
	}

	mismatched := false
	err = rt.app.RunTask(cmd.Context(), func(ctx context.Context) error {
		vr, err := rt.migrator.Verify(ctx)
		if err != nil {
			return err
		}

		if len(vr.Mismatches) > 0 {
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UID\tLOGIN\tREASON")
			for _, mm := range vr.Mismatches {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", mm.IdentityKey, mm.LoginName, mm.Reason)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}

		s := rt.app.Summary
		s.AddResult("Checked", vr.Checked, true)
		s.AddResult("Matched", vr.Matched, vr.OK())
		s.AddResult("Mismatches", len(vr.Mismatches), vr.OK())
		s.AddResult("Source errors", vr.SourceErrors, vr.SourceErrors == 0)
		mismatched = !vr.OK()
		return nil
	})
	if err != nil {
		return err
	}
	if mismatched {
		return errReported
	}
	return nil
}
