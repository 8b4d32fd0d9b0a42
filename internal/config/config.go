package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEndpoint    = "http://api.fanyi.baidu.com/api/trans/vip/translate"
	DefaultLanguageID  = "schinese"
	DefaultFailureText = "翻译出错"
)

type Config struct {
	BaiduAppID     string
	BaiduSecretKey string
	BaiduEndpoint  string
	SourceLang     string
	TargetLang     string
	LanguageID     string
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	FailureText    string
	DatabaseURL    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		BaiduAppID:     getEnv("BAIDU_APP_ID", ""),
		BaiduSecretKey: getEnv("BAIDU_SECRET_KEY", ""),
		BaiduEndpoint:  getEnv("BAIDU_ENDPOINT", DefaultEndpoint),
		SourceLang:     getEnv("SOURCE_LANG", "en"),
		TargetLang:     getEnv("TARGET_LANG", "zh"),
		LanguageID:     getEnv("TARGET_LANGUAGE_ID", DefaultLanguageID),
		// Baidu's standard tier allows ten requests per second.
		RequestDelay:   getEnvDuration("REQUEST_DELAY_MS", time.Millisecond, 110*time.Millisecond),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT_SECONDS", time.Second, 30*time.Second),
		FailureText:    getEnv("FAILURE_TEXT", DefaultFailureText),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric environment value")
		return fallback
	}
	return n
}

// getEnvDuration reads an integer count of unit from key.
func getEnvDuration(key string, unit, fallback time.Duration) time.Duration {
	n := getEnvInt(key, -1)
	if n < 0 {
		return fallback
	}
	return time.Duration(n) * unit
}
