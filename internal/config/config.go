package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string        `validate:"required"`
	DBPath          string        `validate:"required"`
	LogLevel        string        `validate:"oneof=DEBUG INFO WARN WARNING ERROR debug info warn warning error"`
	ImportWorkers   int           `validate:"min=1,max=64"`
	ImportQueueSize int           `validate:"min=1,max=10000"`
	DuePageSize     int           `validate:"min=1,max=1000"`
	MaxImportBatch  int           `validate:"min=1,max=5000"`
	ShutdownTimeout time.Duration `validate:"min=1s"`
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "file:mindforge.db"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		ImportWorkers:   envIntOr("IMPORT_WORKER_COUNT", 2),
		ImportQueueSize: envIntOr("IMPORT_QUEUE_SIZE", 32),
		DuePageSize:     envIntOr("DUE_PAGE_SIZE", 50),
		MaxImportBatch:  envIntOr("MAX_IMPORT_BATCH", 500),
		ShutdownTimeout: envDurationOr("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the loaded values and reports every problem by its
// environment variable name.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

var envNames = map[string]string{
	"Addr":            "ADDR",
	"DBPath":          "DB_PATH",
	"LogLevel":        "LOG_LEVEL",
	"ImportWorkers":   "IMPORT_WORKER_COUNT",
	"ImportQueueSize": "IMPORT_QUEUE_SIZE",
	"DuePageSize":     "DUE_PAGE_SIZE",
	"MaxImportBatch":  "MAX_IMPORT_BATCH",
	"ShutdownTimeout": "SHUTDOWN_TIMEOUT",
}

func describe(fe validator.FieldError) string {
	name := envNames[fe.StructField()]
	if name == "" {
		name = fe.StructField()
	}
	switch fe.Tag() {
	case "required":
		return name + " cannot be empty"
	case "min":
		return fmt.Sprintf("%s must be at least %s (got %v)", name, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got %v)", name, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of DEBUG, INFO, WARN, ERROR (got %v)", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s check", name, fe.Tag())
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
