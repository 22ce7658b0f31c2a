package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port         int
	MySQLDSN     string
	RedisAddr    string
	KafkaBrokers string
	KafkaTopic   string
	JWTSecret    string
	InferenceURL string
	LogJSON      bool
}

func Default() Config {
	return Config{
		Port:         8080,
		MySQLDSN:     "root:root@tcp(localhost:3306)/agrimart?parseTime=true",
		RedisAddr:    "localhost:6379",
		KafkaBrokers: "",
		KafkaTopic:   "agrimart.orders",
		JWTSecret:    "",
		InferenceURL: "http://127.0.0.1:9000",
		LogJSON:      true,
	}
}

// FromEnv overrides the defaults with AGRIMART_* environment variables.
func FromEnv() Config {
	c := Default()
	if v := os.Getenv("AGRIMART_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("AGRIMART_MYSQL_DSN"); v != "" {
		c.MySQLDSN = v
	}
	if v := os.Getenv("AGRIMART_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("AGRIMART_KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = v
	}
	if v := os.Getenv("AGRIMART_KAFKA_TOPIC"); v != "" {
		c.KafkaTopic = v
	}
	if v := os.Getenv("AGRIMART_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("AGRIMART_INFERENCE_URL"); v != "" {
		c.InferenceURL = v
	}
	if v := os.Getenv("AGRIMART_LOG_JSON"); v != "" {
		switch v {
		case "1", "true", "TRUE":
			c.LogJSON = true
		case "0", "false", "FALSE":
			c.LogJSON = false
		}
	}
	return c
}
