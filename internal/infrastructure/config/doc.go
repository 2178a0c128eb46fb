// Package config provides configuration management for the browserdesk backend.
//
// Configuration is resolved in three layers, later layers winning:
//  1. Built-in defaults (Default)
//  2. An optional YAML or TOML file named by CONFIG_FILE
//  3. Environment variables (12-factor)
//
// Durations are written as Go duration strings ("150ms", "5s") in every layer.
package config
