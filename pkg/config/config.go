package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	CompletionsAPIURL string
	CompletionsAPIKey string
	CompletionsModel  string
	TitleModel        string

	DBPath   string
	HTTPPort string

	UserName    string
	UserAddress string
	Timezone    string

	ProviderAPIURL string
	ProviderAPIKey string
	OperatorAlert  string

	SessionGapHours      int
	SessionRetentionDays int
	HistoryRetentionDays int
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvOrPanic(key string, printEnv bool) string {
	value := getEnv(key, "", printEnv)
	if value == "" {
		panic(fmt.Sprintf("Environment variable %s is not set", key))
	}
	return value
}

func getEnvInt(key string, defaultValue int, printEnv bool) int {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		CompletionsAPIURL:    getEnv("COMPLETIONS_API_URL", "https://api.openai.com/v1", printEnv),
		CompletionsAPIKey:    getEnvOrPanic("COMPLETIONS_API_KEY", printEnv),
		CompletionsModel:     getEnv("COMPLETIONS_MODEL", "gpt-4.1-mini", printEnv),
		TitleModel:           getEnv("TITLE_MODEL", "gpt-4.1-mini", printEnv),
		DBPath:               getEnv("DB_PATH", "./output/sqlite/bethany.db", printEnv),
		HTTPPort:             getEnv("HTTP_PORT", "8787", printEnv),
		UserName:             getEnv("USER_NAME", "Micaiah", printEnv),
		UserAddress:          getEnv("USER_ADDRESS", "", printEnv),
		Timezone:             getEnv("TIMEZONE", "America/Chicago", printEnv),
		ProviderAPIURL:       getEnv("PROVIDER_API_URL", "", printEnv),
		ProviderAPIKey:       getEnv("PROVIDER_API_KEY", "", printEnv),
		OperatorAlert:        getEnv("OPERATOR_ALERT_ADDRESS", "", printEnv),
		SessionGapHours:      getEnvInt("SESSION_GAP_HOURS", 4, printEnv),
		SessionRetentionDays: getEnvInt("SESSION_RETENTION_DAYS", 150, printEnv),
		HistoryRetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 30, printEnv),
	}

	return conf, nil
}
