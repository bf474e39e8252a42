package config

import (
	"reflect"
	"strings"

	"crosspost/core/history"
	"crosspost/core/logger"
	"crosspost/core/storage"
	"crosspost/feature/devto"
	"crosspost/feature/hashnode"
	"crosspost/feature/medium"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Content holds configuration for the post repository layout.
	Content ContentConfig `mapstructure:"content"`
	// Platforms holds per-platform credentials and enable flags.
	Platforms PlatformsConfig `mapstructure:"platforms"`
	// Covers holds configuration for cover image uploads.
	Covers CoversConfig `mapstructure:"covers"`
	// History holds configuration for the publish history log.
	History history.Config `mapstructure:"history"`
}

// ContentConfig describes where posts and the status file live inside
// the repository and how the status commit is authored.
type ContentConfig struct {
	// Dir is the repository-relative directory containing posts.
	Dir string `mapstructure:"dir" default:"blog-posts"`
	// StatusFile is the repository-relative status file path.
	StatusFile string `mapstructure:"status_file" default:"status.yml"`
	// CommitMessage is the fixed marker message for status commits.
	CommitMessage string `mapstructure:"commit_message" default:"auto-commit: update status.yml"`
	// AuthorName signs the status commit.
	AuthorName string `mapstructure:"author_name" default:"crosspost"`
	// AuthorEmail signs the status commit.
	AuthorEmail string `mapstructure:"author_email" default:"crosspost@localhost"`
}

// PlatformsConfig bundles the per-platform sections.
type PlatformsConfig struct {
	Devto    devto.Config    `mapstructure:"devto"`
	Medium   medium.Config   `mapstructure:"medium"`
	Hashnode hashnode.Config `mapstructure:"hashnode"`
}

// CoversConfig toggles cover uploads and carries the storage settings.
type CoversConfig struct {
	// Enabled toggles uploading repository-local cover images.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Storage holds the object storage settings for cover uploads.
	Storage storage.Config `mapstructure:"storage"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. CI)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. PLATFORMS_DEVTO_API_KEY -> platforms.devto.api_key)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
