// Package security holds the TLS settings shared by the directory reader and
// the Redis claim backend.
//
//	cfg := security.TLSConfig{CAFile: "/etc/idmigrate/ca.pem"}
//	tlsConfig, err := cfg.Build() // nil when nothing is configured
package security
