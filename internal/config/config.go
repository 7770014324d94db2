// Package config loads runtime settings from PHOTOCIRCUIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "PHOTOCIRCUIT_"

type Config struct {
	LogLevel string

	// Preprocessing
	TargetSize  int
	Thicken     bool
	GridStep    int // 0 selects a step from the image size
	GridBase    int
	IncludeGrid bool

	// Evaluation
	Workers       int
	FixturesDir   string
	LabelDistance int

	// Recognizer
	RecognizerCmd string
	RecognizerURL string
	DetectPasses  int
	OCRLanguage   string
	DetectTimeout time.Duration

	// Azure blob fixtures, optional
	AzureAccount   string
	AzureKey       string
	AzureContainer string
	AzurePrefix    string
}

// UseBlobFixtures reports whether fixtures should be read from Azure blob storage.
func (c *Config) UseBlobFixtures() bool {
	return c.AzureAccount != "" && c.AzureContainer != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		TargetSize:     parseIntOrDefault("TARGET_SIZE", 500),
		Thicken:        parseBoolOrDefault("THICKEN", false),
		GridStep:       parseIntOrDefault("GRID_STEP", 0),
		GridBase:       parseIntOrDefault("GRID_BASE", 50),
		IncludeGrid:    parseBoolOrDefault("INCLUDE_GRID", true),
		Workers:        parseIntOrDefault("WORKERS", 0),
		FixturesDir:    getEnvOrDefault("FIXTURES_DIR", "test/test_data"),
		LabelDistance:  parseIntOrDefault("LABEL_DISTANCE", 0),
		RecognizerCmd:  getEnvOrDefault("RECOGNIZER_CMD", ""),
		RecognizerURL:  getEnvOrDefault("RECOGNIZER_URL", ""),
		DetectPasses:   parseIntOrDefault("DETECT_PASSES", 1),
		OCRLanguage:    getEnvOrDefault("OCR_LANGUAGE", "eng"),
		DetectTimeout:  parseDurationOrDefault("DETECT_TIMEOUT", 60*time.Second),
		AzureAccount:   getEnvOrDefault("AZURE_ACCOUNT", ""),
		AzureKey:       getEnvOrDefault("AZURE_KEY", ""),
		AzureContainer: getEnvOrDefault("AZURE_CONTAINER", ""),
		AzurePrefix:    getEnvOrDefault("AZURE_PREFIX", ""),
	}

	if cfg.TargetSize <= 0 {
		return nil, fmt.Errorf("%sTARGET_SIZE must be > 0 (got %d)", envPrefix, cfg.TargetSize)
	}
	if cfg.GridStep < 0 {
		return nil, fmt.Errorf("%sGRID_STEP must be >= 0 (got %d)", envPrefix, cfg.GridStep)
	}
	if cfg.GridBase <= 0 {
		return nil, fmt.Errorf("%sGRID_BASE must be > 0 (got %d)", envPrefix, cfg.GridBase)
	}
	if cfg.DetectPasses < 1 {
		return nil, fmt.Errorf("%sDETECT_PASSES must be >= 1 (got %d)", envPrefix, cfg.DetectPasses)
	}
	if cfg.RecognizerCmd != "" && cfg.RecognizerURL != "" {
		return nil, fmt.Errorf("set only one of %sRECOGNIZER_CMD and %sRECOGNIZER_URL", envPrefix, envPrefix)
	}
	if cfg.LabelDistance < 0 {
		return nil, fmt.Errorf("%sLABEL_DISTANCE must be >= 0 (got %d)", envPrefix, cfg.LabelDistance)
	}
	if cfg.DetectTimeout <= 0 {
		return nil, fmt.Errorf("%sDETECT_TIMEOUT must be > 0 (got %s)", envPrefix, cfg.DetectTimeout)
	}
	if cfg.AzureAccount != "" && cfg.AzureKey == "" {
		return nil, fmt.Errorf("%sAZURE_KEY is required when %sAZURE_ACCOUNT is set", envPrefix, envPrefix)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}
