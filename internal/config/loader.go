package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"

	"github.com/docfind/docfind/internal/db"
)

// envBindings maps config keys to the environment variables that
// override them.
var envBindings = map[string]string{
	"database.host":     "DOCFIND_DB_HOST",
	"database.port":     "DOCFIND_DB_PORT",
	"database.user":     "DOCFIND_DB_USER",
	"database.password": "DOCFIND_DB_PASSWORD",
	"database.dbname":   "DOCFIND_DB_NAME",
	"database.sslmode":  "DOCFIND_DB_SSLMODE",
}

// LoadDBConfig reads database settings from config.yaml in the given
// directory. A missing file is not an error; defaults apply and
// DOCFIND_DB_* environment variables override both the defaults and
// the file.
func LoadDBConfig(configPath string) (db.Config, error) {
	cfg := db.DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	for key, envVar := range envBindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return db.Config{}, fmt.Errorf("failed to bind %s: %w", envVar, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return db.Config{}, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		log.Printf("[CONFIG] no config.yaml in %s, using defaults and environment", configPath)
	} else {
		log.Printf("[CONFIG] loaded %s", v.ConfigFileUsed())
	}

	if v.IsSet("database.host") {
		cfg.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
