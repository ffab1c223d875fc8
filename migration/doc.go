// Package migration runs the identity migration: one reader streams source
// records into a bounded relay, a fixed pool of workers claims, converts and
// stores them, and the first fatal error stops the run.
//
// A run moves through StateStarting, StateStreaming, StateDraining and
// StateCompleted. Draining enqueues one stop marker per worker; each marker
// gives up once every worker has exited, so an aborted run never blocks on
// a full relay. Completion waits on a countdown barrier bounded by
// Config.CompletionTimeout.
//
//	m, err := migration.New(cfg, src, st, identity.NewConverter(hasher),
//	    migration.WithLogger(log),
//	    migration.WithClaimer(claimer),
//	)
//	report, err := m.Run(ctx)
//
// Errors are classified with errors.KindOf: Skip errors are logged and
// counted, Recoverable source errors are counted, and everything else is
// fatal.
package migration
