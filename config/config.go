package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 进程级配置，全部来自环境变量，.env 文件可选
type Config struct {
	ListenAddr   string
	RembgURL     string
	RembgModel   string
	RembgTimeout time.Duration
	LogLevel     string
}

func Load() *Config {
	// .env 不存在不是错误，真实环境变量优先
	_ = godotenv.Load()

	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":7860"),
		RembgURL:     getEnv("REMBG_URL", ""),
		RembgModel:   getEnv("REMBG_MODEL", "u2net"),
		RembgTimeout: time.Duration(getEnvInt("REMBG_TIMEOUT", 120)) * time.Second,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
