package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Константы для имен переменных окружения
const (
	EnvAddress          = "ADDRESS"
	EnvDatabaseDSN      = "DATABASE_DSN"
	EnvGenerateInterval = "GENERATE_INTERVAL"
	EnvMonitorInterval  = "MONITOR_INTERVAL"
	EnvAlertCooldown    = "ALERT_COOLDOWN"
	EnvStampOnEnqueue   = "ALERT_STAMP_ON_ENQUEUE"
	EnvBruteForce       = "ENABLE_BRUTE_FORCE"
	EnvGeoAPIURL        = "GEO_API_URL"
	EnvSMTPHost         = "SMTP_HOST"
	EnvSMTPPort         = "SMTP_PORT"
	EnvSMTPUsername     = "SMTP_USERNAME"
	EnvSMTPPassword     = "SMTP_PASSWORD"
	EnvSMTPFrom         = "SMTP_FROM"
	EnvJournalFile      = "JOURNAL_FILE"
	EnvWebhookURL       = "WEBHOOK_URL"
	EnvGRPCAddress      = "GRPC_ADDRESS"
	EnvTrustedSubnet    = "TRUSTED_SUBNET"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFile          = "LOG_FILE"
	EnvConfig           = "CONFIG"
)

// Константы для флагов командной строки
const (
	FlagAddress          = "a"
	FlagDatabaseDSN      = "d"
	FlagGenerateInterval = "g"
	FlagMonitorInterval  = "m"
	FlagStampOnEnqueue   = "alert-stamp-on-enqueue"
	FlagBruteForce       = "brute-force"
	FlagGeoAPIURL        = "geo-url"
	FlagSMTPHost         = "smtp-host"
	FlagSMTPPort         = "smtp-port"
	FlagSMTPUsername     = "smtp-user"
	FlagSMTPPassword     = "smtp-pass"
	FlagSMTPFrom         = "smtp-from"
	FlagJournalFile      = "journal-file"
	FlagWebhookURL       = "webhook-url"
	FlagGRPCAddress      = "grpc-address"
	FlagTrustedSubnet    = "t"
	FlagLogLevel         = "l"
	FlagLogFile          = "log-file"
	FlagConfig           = "c"
)

// ServerJSONConfig представляет конфигурацию сервера в формате JSON.
//
// Длительности задаются строками вида "5s", "1m".
type ServerJSONConfig struct {
	Address          string `json:"address"`
	DatabaseDSN      string `json:"database_dsn"`
	GenerateInterval string `json:"generate_interval"`
	MonitorInterval  string `json:"monitor_interval"`
	AlertCooldown    string `json:"alert_cooldown"`
	StampOnEnqueue   *bool  `json:"alert_stamp_on_enqueue"`
	BruteForce       *bool  `json:"enable_brute_force"`
	GeoAPIURL        string `json:"geo_api_url"`
	SMTPHost         string `json:"smtp_host"`
	SMTPPort         *int   `json:"smtp_port"`
	SMTPUsername     string `json:"smtp_username"`
	SMTPPassword     string `json:"smtp_password"`
	SMTPFrom         string `json:"smtp_from"`
	JournalFile      string `json:"journal_file"`
	WebhookURL       string `json:"webhook_url"`
	GRPCAddress      string `json:"grpc_address"`
	TrustedSubnet    string `json:"trusted_subnet"`
	LogLevel         string `json:"log_level"`
	LogFile          string `json:"log_file"`
}

// loadJSONConfig читает и разбирает JSON-файл в v. Пустой путь - не ошибка.
func loadJSONConfig(filePath string, v interface{}) error {
	if filePath == "" {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadServerJSONConfig загружает конфигурацию сервера из JSON файла.
func LoadServerJSONConfig(filePath string) (*ServerJSONConfig, error) {
	cfg := &ServerJSONConfig{}
	if err := loadJSONConfig(filePath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDuration разбирает строку длительности ("5s", "1m").
// Пустая строка даёт 0 и nil.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}

	return d, nil
}

// GetConfigFilePathWithFlag возвращает путь к файлу конфигурации.
// Флаг имеет приоритет над переменной окружения CONFIG.
func GetConfigFilePathWithFlag(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return EnvString(EnvConfig)
}
