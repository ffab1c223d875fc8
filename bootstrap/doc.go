// Package bootstrap runs an idmigrate command as a finite task with a
// uniform lifecycle.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(database.NewComponent(cfg.Database, log))
//	app.OnConfigure(buildMigrator)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    report, err := migrator.Run(ctx)
//	    app.Summary.AddResult("written", report.Written, true)
//	    return err
//	})
//
// RunTask starts the registered components in order, runs the hooks and
// configure callbacks, prints the infrastructure summary, runs the task
// with SIGINT/SIGTERM cancellation, stops the components in reverse order,
// and prints the run summary.
package bootstrap
