// Package component defines the lifecycle interface shared by idmigrate's
// infrastructure (destination database, redis client, claim backend) and a
// Registry that starts them in order and stops them in reverse.
//
// # Interfaces
//
//   - Component: Name/Start/Stop/Health
//   - Describable: one-line descriptions for the run summary
package component
