// Package config loads and validates the server's YAML configuration.
// Secrets (API keys, webhook URLs, the Redis address) are resolved from the
// environment via *_env indirection so the config file can be committed.
// Watch provides fsnotify-based hot reload of tunable settings.
package config
