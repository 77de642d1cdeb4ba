// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"

	"github.com/joho/godotenv"
)

// S3Settings holds what the S3 source needs to build a client.
type S3Settings struct {
	Region    string
	AccessKey string
	SecretKey string
}

// Env is the process environment the CLI runs with.
type Env struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	S3         S3Settings
}

// LoadEnv reads a .env file from the working directory when present and then
// the process environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		ConfigPath: getEnv("MLEXTRACT_CONFIG", "logtypes.yaml"),
		LogLevel:   getEnv("MLEXTRACT_LOG_LEVEL", "info"),
		LogFormat:  getEnv("MLEXTRACT_LOG_FORMAT", "text"),
		S3: S3Settings{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			AccessKey: getEnv("AWS_ACCESS_KEY", ""),
			SecretKey: getEnv("AWS_SECRET_KEY", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
