// Package identity defines the records that flow through a migration and the
// converter that turns a directory entry into a destination row.
package identity
