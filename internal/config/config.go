package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Address           string `validate:"required"`
	Port              string `validate:"required,numeric"`
	TlsCert           string
	TlsKey            string
	PrintHttpRequests bool
	LogToFile         bool
	SnowflakeWorkerID int64 `validate:"gte=0,lt=1024"`

	// SelfContained runs without mysql and redis: sqlite storage and an
	// in-process pub/sub instead.
	SelfContained bool

	DbUser     string
	DbPassword string
	DbAddress  string
	DbPort     string
	DbDatabase string

	RedisAddress string

	// Rate limit for the public API, requests per second per IP.
	RequestsPerSecond float64 `validate:"gt=0"`
	RequestBurst      int     `validate:"gt=0"`

	// Completion endpoint and key for the AI collaborator.
	AiEndpoint string
	AiApiKey   string
}

// Read loads and validates config from the given JSON file, filling in the
// defaults first so a minimal file is enough for self-contained mode.
func Read(path string) (Config, error) {
	cfg := Config{
		Address:           "localhost",
		Port:              "3000",
		SelfContained:     true,
		RedisAddress:      "localhost:6379",
		RequestsPerSecond: 20,
		RequestBurst:      40,
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return cfg, err
	}

	err = json.Unmarshal(bytes, &cfg)
	if err != nil {
		return cfg, err
	}

	err = validator.New().Struct(cfg)
	if err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	if !cfg.SelfContained && (cfg.DbUser == "" || cfg.DbAddress == "" || cfg.DbDatabase == "") {
		return cfg, fmt.Errorf("mysql settings are required when SelfContained is false")
	}

	return cfg, nil
}
