package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"captionchecker-be/internal/entity"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Ai       AIConfig
	Payment  PaymentConfig
	Plans    entity.PlanTable
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JWTSecret          string
	SessionTTL         time.Duration
	MailTokenTTL       time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type AIConfig struct {
	LLMProvider string // "openai" or an OpenAI-compatible gateway
	LLMModel    string // e.g. "gpt-4o"
	VisionModel string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
}

type PaymentConfig struct {
	ServerKey    string
	IsProduction bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "CaptionChecker"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			MailTokenTTL:       getEnvAsDuration("MAIL_TOKEN_TTL", 15*time.Minute),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "openai"),
			LLMModel:    getEnv("LLM_MODEL", "gpt-4o"),
			VisionModel: getEnv("LLM_VISION_MODEL", "gpt-4o"),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Payment: PaymentConfig{
			ServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			IsProduction: getEnv("MIDTRANS_IS_PRODUCTION", "false") == "true",
		},
		Plans: loadPlanTable(getEnv("PLAN_TABLE_PATH", "")),
	}
}

// loadPlanTable reads the plan table from a JSON file so the tiers can be
// changed without a deploy. Missing or broken files fall back to the
// built-in table.
func loadPlanTable(path string) entity.PlanTable {
	table := entity.DefaultPlanTable()
	if path == "" {
		return table
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Note: plan table %s not readable (%v), using built-in table", path, err)
		return table
	}

	var override map[string]entity.Plan
	if err := json.Unmarshal(data, &override); err != nil {
		log.Printf("Note: plan table %s is not valid JSON (%v), using built-in table", path, err)
		return table
	}

	for slug, plan := range override {
		plan.Slug = slug
		table[slug] = plan
	}
	return table
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
