// Package config loads service configuration from environment variables.
//
// Every setting has a default, so the service starts with no environment at
// all. Command-line flags in cmd/server override the loaded values.
package config
