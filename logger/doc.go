// Package logger provides structured logging for idmigrate using zerolog.
//
// It supports JSON and console output, writing to stdout, stderr or a run
// log file, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "/var/log/idmigrate/run.log"
//
// # Usage
//
//	log := logger.GetGlobalLogger().WithComponent("migration")
//	log.Info("record migrated", logger.RecordFields(rec.IdentityKey, rec.LoginName))
package logger
