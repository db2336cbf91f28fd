package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	GoogleAudience   string
	AllowOrigins     []string
	LogstashTCPAddr  string
	SessionTTL       string
	LoginURL         string
	DashScopeAPIKey  string
	DashScopeBaseURL string
	DashScopeModel   string
	TripListLimit    int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	listLimit := 20
	if v, err := strconv.Atoi(getenv("TRIP_LIST_LIMIT", "20")); err == nil && v > 0 {
		listLimit = v
	}

	return Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      must("DATABASE_URL"),
		JWTSecret:        must("JWT_SECRET"),
		GoogleAudience:   getenv("GOOGLE_AUDIENCE", ""),
		LogstashTCPAddr:  getenv("LOGSTASH_TCP_ADDR", ""),
		SessionTTL:       getenv("SESSION_TTL", "24h"),
		LoginURL:         getenv("LOGIN_URL", "/login"),
		DashScopeAPIKey:  getenv("DASHSCOPE_API_KEY", ""),
		DashScopeBaseURL: getenv("DASHSCOPE_BASE_URL", ""),
		DashScopeModel:   getenv("DASHSCOPE_MODEL", ""),
		AllowOrigins:     splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		TripListLimit:    listLimit,
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
