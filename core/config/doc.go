// Package config provides configuration management for crosspost.
//
// It utilizes Viper for loading configuration from environment
// variables and an optional .env file (godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all settings,
// divided into subsections:
//   - Log: logging level and format
//   - Content: post directory, status file path, commit authorship
//   - Platforms: per-platform credentials and enable flags
//   - Covers: object storage settings for cover image uploads
//   - History: local publish history database
//
// Environment variables map onto nested keys by replacing dots with
// underscores, e.g. PLATFORMS_DEVTO_API_KEY -> platforms.devto.api_key.
// Defaults come from `default` struct tags, bound via reflection so
// AutomaticEnv sees every key.
package config
