// Package config loads server and CLI settings from an optional YAML file,
// .env files and POLICYHUB_* environment variables, and validates them.
package config
