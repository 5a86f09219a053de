// Package config loads service configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	// Server
	HTTPAddr    string
	MetricsAddr string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool // in-memory stores instead of Postgres/ClickHouse

	// Chain access
	RPCEndpoint string
	WSEndpoint  string

	// Ingestion
	PoolAddr     common.Address
	HookAddr     common.Address
	StartBlock   uint64
	PollInterval time.Duration

	Debug bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	// Best effort: absence of .env is the normal production case.
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		UseMemory:     getEnvAsBool("USE_MEMORY", false),

		RPCEndpoint: getEnv("ETH_RPC_ENDPOINT", ""),
		WSEndpoint:  getEnv("ETH_WS_ENDPOINT", ""),

		PoolAddr:     common.HexToAddress(getEnv("POOL_ADDR", "")),
		HookAddr:     common.HexToAddress(getEnv("HOOK_ADDR", "")),
		StartBlock:   getEnvAsUint64("START_BLOCK", 0),
		PollInterval: getEnvAsDuration("POLL_INTERVAL", 12*time.Second),

		Debug: getEnvAsBool("DEBUG", false),
	}
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsUint64(key string, defaultVal uint64) uint64 {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseUint(valStr, 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}
