package config

import (
	"fmt"
	"strings"

	"github.com/shelfsight/shelfsight/internal"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

// defaults are applied before the config file and ENV are read. Anything
// listed here can be omitted from the config file.
var defaults = map[string]any{
	"embeddings.model":              "multimodalembedding",
	"embeddings.dimensions":         1408,
	"feature_store.product_id_slot": 8,
	"feature_store.uri_slot":        9,
	"catalog.images_view":           "product_image_urls",
	"catalog.aisle_table":           "product_qty",
	"describer.model":               "gpt-4o-mini",
	"describer.max_image_edge":      1024,
	"search.default_neighbor_count": 10,
	"search.max_neighbor_count":     100,
	"search.call_timeout_seconds":   30,
	"server.host":                   "0.0.0.0",
	"server.port":                   8000,
	"log.level":                     "info",
}

// LoadConfig loads the config file and ENV variables into a Config struct
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SHELFSIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Warn("no config file found, using defaults and ENV")
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	// Secrets are only ever loaded from ENV
	err := viper.BindEnv("describer.api_key", "SHELFSIGHT_DESCRIBER_API_KEY")
	if err != nil {
		log.Fatalf("Error binding environment variable: %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate fails fast on missing required configuration, most importantly
// the describer API key, which has no usable default.
func validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var invalid []string
		for _, fieldErr := range err.(validator.ValidationErrors) {
			invalid = append(invalid, fieldErr.Namespace())
		}
		return fmt.Errorf("missing required config values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Warn(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	log.Info("Log level set to: ", level)
}
