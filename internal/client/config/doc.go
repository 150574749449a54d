// Package config loads runtime configuration for the notex client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables with the NOTEX_ prefix, after loading .env.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the notes service
//	-i int      online status check interval (seconds)
//	-d string   local cache database path
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "5s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://localhost:3000",
//	  "probe_path": "/api/seed",
//	  "online_check_interval": "5s",
//	  "probe_timeout": "5s",
//	  "request_timeout": "30s",
//	  "cache_path": "notex.db",
//	  "log_level": "info",
//	  "log_format": "json"
//	}
package config
