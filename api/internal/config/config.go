package config

import (
	"os"
	"strings"
)

type Config struct {
	Port        string
	DatabaseURL string

	GeminiAPIKey string
	GeminiModel  string

	WizartAPIKey string
	WizartAPIURL string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load читает окружение один раз. Ключи провайдеров намеренно не обязательны:
// доступность провайдера — явный входной параметр оркестратора, а не причина
// падать на старте.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		WizartAPIKey: getEnv("WIZART_API_KEY", ""),
		WizartAPIURL: getEnv("WIZART_API_URL", ""),
	}
}

func (c *Config) GeminiEnabled() bool { return c.GeminiAPIKey != "" }
func (c *Config) WizartEnabled() bool { return c.WizartAPIKey != "" }
