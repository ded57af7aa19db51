package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sllt/dbmap/pkg/dbmap"
)

// DBConfigFromEnv builds a connection config from DB_* environment
// variables, loading the given dotenv files first (missing files are
// ignored). Recognized variables: DB_DIALECT, DB_HOST, DB_PORT, DB_USER,
// DB_PASSWORD, DB_NAME, DB_SSL_MODE.
func DBConfigFromEnv(files ...string) (dbmap.DBConfig, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return dbmap.DBConfig{}, fmt.Errorf("%s: %w", f, err)
		}
	}

	cfg := dbmap.DBConfig{
		Dialect:  os.Getenv("DB_DIALECT"),
		Host:     os.Getenv("DB_HOST"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSL_MODE"),
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return dbmap.DBConfig{}, fmt.Errorf("%w: DB_PORT %q is not a number", dbmap.ErrInvalidConfig, port)
		}

		cfg.Port = p
	}

	return cfg, nil
}
