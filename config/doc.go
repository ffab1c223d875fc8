// Package config loads idmigrate configuration.
//
// Viper reads config.yml from the standard locations, a .env file is loaded
// with godotenv, and environment variables carrying the service prefix
// override file values (IDMIGRATE_SOURCE_LDAP_BIND_PASSWORD sets
// source.ldap.bind_password).
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("idmigrate", &cfg, config.WithConfigFile(path))
package config
