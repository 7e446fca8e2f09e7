// Package config loads the storefront's runtime settings from the
// environment. Every value has a default that works for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	CartAPIURL      string
	OrdersAPIURL    string
	WebpayAPIURL    string
	ReturnURL       string
	RedisAddr       string
	DataDir         string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CartAPIURL:      getEnv("CART_API_URL", "http://localhost:3001/api"),
		OrdersAPIURL:    getEnv("ORDERS_API_URL", "http://localhost:3001/api"),
		WebpayAPIURL:    getEnv("WEBPAY_API_URL", "http://localhost:3002/api/webpay"),
		ReturnURL:       getEnv("RETURN_URL", "http://localhost:8080/api/v1/checkout/return"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		DataDir:         getEnv("DATA_DIR", "./data"),
		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT_SECONDS", 30),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT_SECONDS", 10),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
