// Package config loads runtime configuration for the matchmate CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Optional .env file selected via -env, loaded into the environment.
//  4. MATCHMATE_* environment variables (see parseEnv).
//  5. Command-line flags (see parseFlags), which override earlier values.
//
// The merged result is validated; LoadConfig panics on any error.
//
// Supported flags
//
//	-a string   backend base URL
//	-d string   SQLite database path
//	-s string   state store: sqlite, redis or memory
//	-r string   Redis address
//	-l string   log level
//	-t int      request timeout (seconds)
//	-p int      search page size
//	-m string   metrics listen address
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "https://api.example.com/v1",
//	  "store": "sqlite",
//	  "database_dsn": "/var/lib/matchmate/state.db",
//	  "request_timeout": "10s",
//	  "page_size": 20,
//	  "log_format": "zerolog"
//	}
//
// The session secret, when set, seals the stored bearer token. Prefer the
// MATCHMATE_SESSION_SECRET variable over the JSON file for it.
package config
