package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kbukum/idmigrate/bootstrap"
	"github.com/kbukum/idmigrate/migration"
	"github.com/kbukum/idmigrate/observability"
)

type migrateOptions struct {
	*rootOptions
	dryRun           bool
	maxRecords       int
	workers          int
	printCredentials bool
	clean            bool
}

func newMigrateCommand(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate every source identity",
		Long: `Stream every identity from the configured source, hash plaintext
passwords with bcrypt and insert the records into the destination database.
Identities already stored are skipped, so an interrupted run can be repeated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.dryRun, "dry-run", false, "Read and convert without writing")
	f.IntVar(&opts.maxRecords, "max-records", 0, "Stop after this many records (0 = all)")
	f.IntVar(&opts.workers, "workers", 0, "Number of concurrent workers")
	f.BoolVar(&opts.printCredentials, "print-credentials", false, "Log each source credential and its new hash")
	f.BoolVar(&opts.clean, "clean", false, "Drop and recreate the destination schema first")
	return cmd
}

// apply lets explicitly set flags override the config file.
func (o *migrateOptions) apply(cmd *cobra.Command, cfg *AppConfig) {
	f := cmd.Flags()
	if f.Changed("dry-run") {
		cfg.Migration.DryRun = o.dryRun
	}
	if f.Changed("max-records") {
		cfg.Migration.MaxRecords = o.maxRecords
	}
	if f.Changed("workers") {
		cfg.Migration.Workers = o.workers
	}
	if f.Changed("print-credentials") {
		cfg.Migration.PrintCredentials = o.printCredentials
	}
}

func runMigrate(cmd *cobra.Command, opts *migrateOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	if opts.clean && cfg.Migration.DryRun {
		return errors.New("--clean cannot be combined with a dry run")
	}

	rt, err := newRuntime(cfg, true, bootstrap.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	var report *migration.Report
	rt.app.OnStop(func(context.Context) error {
		path := rt.obs.TextfilePath()
		if path == "" || report == nil {
			return nil
		}
		return observability.WriteTextfile(path, report.Summary())
	})

	err = rt.app.RunTask(cmd.Context(), func(ctx context.Context) error {
		if opts.clean {
			if err := rt.reset(ctx); err != nil {
				return err
			}
		}
		var runErr error
		report, runErr = rt.migrator.Run(ctx)
		rt.addRunResults(ctx, report)
		return runErr
	})
	if err != nil {
		return err
	}
	if !report.Succeeded() {
		return errReported
	}
	return nil
}

func (rt *runtime) addRunResults(ctx context.Context, r *migration.Report) {
	s := rt.app.Summary
	mode := "write"
	if r.DryRun {
		mode = "dry run"
	}

	s.AddResult("Run", r.RunID, true)
	s.AddResult("Mode", mode, true)
	s.AddResult("Outcome", r.Outcome.String(), r.Succeeded())
	s.AddResult("Produced", r.Produced, true)
	s.AddResult("Written", r.Written, true)
	s.AddResult("Skipped", r.Skipped, true)
	s.AddResult("Source errors", r.SourceErrors, r.SourceErrors == 0)
	if n, err := rt.store.Count(context.WithoutCancel(ctx)); err == nil {
		s.AddResult("Stored identities", n, true)
	}
	if r.Err != nil {
		s.AddResult("Error", r.Err.Error(), false)
	}
}

type migrateOneOptions struct {
	*rootOptions
	dryRun           bool
	printCredentials bool
}

func newMigrateOneCommand(root *rootOptions) *cobra.Command {
	opts := &migrateOneOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "migrate-one <login-or-uid>",
		Short: "Migrate a single identity",
		Long: `Look up one identity by login name, falling back to its uid, and
migrate it synchronously. An identity that is already stored is reported and
left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateOne(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Read and convert without writing")
	cmd.Flags().BoolVar(&opts.printCredentials, "print-credentials", false, "Log the source credential and its new hash")
	return cmd
}

func runMigrateOne(cmd *cobra.Command, opts *migrateOneOptions, key string) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Migration.DryRun = opts.dryRun
	}
	if cmd.Flags().Changed("print-credentials") {
		cfg.Migration.PrintCredentials = opts.printCredentials
	}

	rt, err := newRuntime(cfg, true, bootstrap.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	return rt.app.RunTask(cmd.Context(), func(ctx context.Context) error {
		s := rt.app.Summary
		dst, err := rt.migrator.MigrateOne(ctx, key)
		switch {
		case errors.Is(err, migration.ErrAlreadyMigrated):
			s.AddResult("Identity", key+" (already migrated)", true)
			return nil
		case err != nil:
			s.AddResult("Identity", key, false)
			return err
		}

		s.AddResult("Identity", dst.IdentityKey, true)
		s.AddResult("Login", dst.LoginName, true)
		if cfg.Migration.DryRun {
			s.AddResult("Mode", "dry run", true)
		}
		return nil
	})
}
