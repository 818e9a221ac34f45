package common

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Bot          BotConfig
	Paths        PathsConfig
	Scheduler    SchedulerConfig
	Logging      LoggingConfig
	Integrations IntegrationsConfig
}

// BotConfig holds Telegram bot configuration
type BotConfig struct {
	Token         string
	ChatAllowlist []int64
}

// PathsConfig holds local storage layout
type PathsConfig struct {
	FilesDir     string
	GeneratedDir string
	TemplatesDir string
	MetaDir      string
}

// StateDBPath is the location of the embedded state database.
func (p PathsConfig) StateDBPath() string {
	return filepath.Join(p.MetaDir, "state.db")
}

// Ensure creates the configured directories.
func (p PathsConfig) Ensure() error {
	for _, dir := range []string{p.FilesDir, p.GeneratedDir, p.TemplatesDir, p.MetaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// SchedulerConfig holds reminder scheduling configuration
type SchedulerConfig struct {
	ReminderDays int
	Timezone     string
	DailyHour    int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// IntegrationsConfig holds external integration configuration
type IntegrationsConfig struct {
	YadiskToken    string
	SheetID        string
	SheetGID       string
	SheetName      string
	SheetFilename  string
	SyncInterval   time.Duration
	RequestTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Bot: BotConfig{
			Token:         getEnv("BOT_TOKEN", ""),
			ChatAllowlist: getEnvAsIDList("CHAT_WHITELIST"),
		},
		Paths: PathsConfig{
			FilesDir:     getEnv("FILES_DIR", "storage/contracts"),
			GeneratedDir: getEnv("GENERATED_DIR", "generated"),
			TemplatesDir: getEnv("TEMPLATES_DIR", "templates"),
			MetaDir:      getEnv("META_DIR", "storage/meta"),
		},
		Scheduler: SchedulerConfig{
			ReminderDays: getEnvAsInt("REMINDER_DAYS", 30),
			Timezone:     getEnv("TIMEZONE", "Europe/Minsk"),
			DailyHour:    getEnvAsInt("DAILY_HOUR", 9),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		Integrations: IntegrationsConfig{
			YadiskToken:    getEnv("YADISK_TOKEN", ""),
			SheetID:        getEnv("GOOGLE_SHEET_ID", ""),
			SheetGID:       getEnv("GOOGLE_SHEET_GID", "0"),
			SheetName:      getEnv("GOOGLE_SHEET_NAME", "Контроль"),
			SheetFilename:  getEnv("GOOGLE_SHEET_FILENAME", "Контроль окончания сроков действия контрактов.xlsx"),
			SyncInterval:   time.Duration(getEnvAsInt("SHEET_SYNC_INTERVAL_MINUTES", 5)) * time.Minute,
			RequestTimeout: getEnvAsDuration("SHEET_REQUEST_TIMEOUT", 30*time.Second),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return NewAppError("CONFIG_ERROR", "BOT_TOKEN is required", ErrInvalidInput)
	}
	if c.Scheduler.ReminderDays <= 0 {
		return NewAppError("CONFIG_ERROR", "REMINDER_DAYS must be positive", ErrInvalidInput)
	}
	if c.Scheduler.DailyHour < 0 || c.Scheduler.DailyHour > 23 {
		return NewAppError("CONFIG_ERROR", "DAILY_HOUR must be within 0..23", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsIDList(key string) []int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if id, err := strconv.ParseInt(item, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
