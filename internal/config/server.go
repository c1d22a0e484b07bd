package config

import (
	"flag"
	"fmt"
	"time"
)

// Значения по умолчанию для сервера.
const (
	DefaultGenerateInterval = 5 * time.Second
	DefaultMonitorInterval  = 60 * time.Second
	DefaultAlertCooldown    = 15 * time.Minute
	DefaultGeoAPIURL        = "http://ip-api.com"
	DefaultSMTPPort         = 587
)

// SMTPConfig описывает подключение к почтовому серверу.
// Пустой Host отключает отправку писем.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ServerConfig - итоговая конфигурация сервера после слияния источников.
type ServerConfig struct {
	Address          NetAddress
	DatabaseDSN      string
	GenerateInterval time.Duration
	MonitorInterval  time.Duration
	AlertCooldown    time.Duration
	StampOnEnqueue   bool
	BruteForce       bool
	GeoAPIURL        string
	SMTP             SMTPConfig
	JournalFile      string
	WebhookURL       string
	GRPCAddress      string
	TrustedSubnet    string
	LogLevel         string
	LogFile          string
}

// LoadServerConfig собирает конфигурацию сервера.
//
// Приоритет источников (от низшего к высшему): значения по умолчанию,
// JSON-файл (-c или CONFIG), флаги командной строки, переменные окружения.
//
// args - аргументы командной строки без имени программы.
func LoadServerConfig(args []string) (*ServerConfig, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	cfg := &ServerConfig{}
	addr := ParseAddressFlag(fs)
	fs.StringVar(&cfg.DatabaseDSN, FlagDatabaseDSN, "", "PostgreSQL DSN")
	fs.DurationVar(&cfg.GenerateInterval, FlagGenerateInterval, DefaultGenerateInterval, "Attack generation interval")
	fs.DurationVar(&cfg.MonitorInterval, FlagMonitorInterval, DefaultMonitorInterval, "Alert monitor interval")
	fs.BoolVar(&cfg.StampOnEnqueue, FlagStampOnEnqueue, false, "Record alert time on enqueue, even if sending fails")
	fs.BoolVar(&cfg.BruteForce, FlagBruteForce, false, "Generate Brute Force attacks")
	fs.StringVar(&cfg.GeoAPIURL, FlagGeoAPIURL, DefaultGeoAPIURL, "Geolocation batch API base URL")
	fs.StringVar(&cfg.SMTP.Host, FlagSMTPHost, "", "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, FlagSMTPPort, DefaultSMTPPort, "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, FlagSMTPUsername, "", "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, FlagSMTPPassword, "", "SMTP password")
	fs.StringVar(&cfg.SMTP.From, FlagSMTPFrom, "", "Alert sender address")
	fs.StringVar(&cfg.JournalFile, FlagJournalFile, "", "JSONL journal of generated attacks")
	fs.StringVar(&cfg.WebhookURL, FlagWebhookURL, "", "Webhook receiving generated attacks")
	fs.StringVar(&cfg.GRPCAddress, FlagGRPCAddress, "", "gRPC health server address")
	fs.StringVar(&cfg.TrustedSubnet, FlagTrustedSubnet, "", "Trusted subnet (CIDR) for gRPC callers")
	fs.StringVar(&cfg.LogLevel, FlagLogLevel, "info", "Log level")
	fs.StringVar(&cfg.LogFile, FlagLogFile, DefaultLogFile, "Log file path")
	configFlag := fs.String(FlagConfig, "", "Path to JSON config")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	jsonCfg, err := LoadServerJSONConfig(GetConfigFilePathWithFlag(*configFlag))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyJSON(jsonCfg, addr, set); err != nil {
		return nil, err
	}
	cfg.Address = *addr

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *ServerConfig) applyJSON(j *ServerJSONConfig, addr *NetAddress, set map[string]bool) error {
	str := func(flagName, val string, dst *string) {
		if val != "" && !set[flagName] {
			*dst = val
		}
	}
	dur := func(flagName, val string, dst *time.Duration) error {
		if set[flagName] {
			return nil
		}
		d, err := ParseDuration(val)
		if err != nil {
			return fmt.Errorf("config %s: %w", flagName, err)
		}
		if d > 0 {
			*dst = d
		}
		return nil
	}

	if j.Address != "" && !set[FlagAddress] {
		if err := addr.Set(j.Address); err != nil {
			return fmt.Errorf("config address: %w", err)
		}
	}
	str(FlagDatabaseDSN, j.DatabaseDSN, &cfg.DatabaseDSN)
	if err := dur(FlagGenerateInterval, j.GenerateInterval, &cfg.GenerateInterval); err != nil {
		return err
	}
	if err := dur(FlagMonitorInterval, j.MonitorInterval, &cfg.MonitorInterval); err != nil {
		return err
	}
	d, err := ParseDuration(j.AlertCooldown)
	if err != nil {
		return fmt.Errorf("config alert_cooldown: %w", err)
	}
	cfg.AlertCooldown = DefaultAlertCooldown
	if d > 0 {
		cfg.AlertCooldown = d
	}
	if j.StampOnEnqueue != nil && !set[FlagStampOnEnqueue] {
		cfg.StampOnEnqueue = *j.StampOnEnqueue
	}
	if j.BruteForce != nil && !set[FlagBruteForce] {
		cfg.BruteForce = *j.BruteForce
	}
	str(FlagGeoAPIURL, j.GeoAPIURL, &cfg.GeoAPIURL)
	str(FlagSMTPHost, j.SMTPHost, &cfg.SMTP.Host)
	if j.SMTPPort != nil && !set[FlagSMTPPort] {
		cfg.SMTP.Port = *j.SMTPPort
	}
	str(FlagSMTPUsername, j.SMTPUsername, &cfg.SMTP.Username)
	str(FlagSMTPPassword, j.SMTPPassword, &cfg.SMTP.Password)
	str(FlagSMTPFrom, j.SMTPFrom, &cfg.SMTP.From)
	str(FlagJournalFile, j.JournalFile, &cfg.JournalFile)
	str(FlagWebhookURL, j.WebhookURL, &cfg.WebhookURL)
	str(FlagGRPCAddress, j.GRPCAddress, &cfg.GRPCAddress)
	str(FlagTrustedSubnet, j.TrustedSubnet, &cfg.TrustedSubnet)
	str(FlagLogLevel, j.LogLevel, &cfg.LogLevel)
	str(FlagLogFile, j.LogFile, &cfg.LogFile)
	return nil
}

func (cfg *ServerConfig) applyEnv() error {
	if err := EnvServer(&cfg.Address, EnvAddress); err != nil {
		return err
	}

	strs := map[string]*string{
		EnvDatabaseDSN:   &cfg.DatabaseDSN,
		EnvGeoAPIURL:     &cfg.GeoAPIURL,
		EnvSMTPHost:      &cfg.SMTP.Host,
		EnvSMTPUsername:  &cfg.SMTP.Username,
		EnvSMTPPassword:  &cfg.SMTP.Password,
		EnvSMTPFrom:      &cfg.SMTP.From,
		EnvJournalFile:   &cfg.JournalFile,
		EnvWebhookURL:    &cfg.WebhookURL,
		EnvGRPCAddress:   &cfg.GRPCAddress,
		EnvTrustedSubnet: &cfg.TrustedSubnet,
		EnvLogLevel:      &cfg.LogLevel,
		EnvLogFile:       &cfg.LogFile,
	}
	for key, dst := range strs {
		if v := EnvString(key); v != "" {
			*dst = v
		}
	}

	durs := map[string]*time.Duration{
		EnvGenerateInterval: &cfg.GenerateInterval,
		EnvMonitorInterval:  &cfg.MonitorInterval,
		EnvAlertCooldown:    &cfg.AlertCooldown,
	}
	for key, dst := range durs {
		d, err := EnvDuration(key)
		if err != nil {
			return err
		}
		if d > 0 {
			*dst = d
		}
	}

	bools := map[string]*bool{
		EnvStampOnEnqueue: &cfg.StampOnEnqueue,
		EnvBruteForce:     &cfg.BruteForce,
	}
	for key, dst := range bools {
		b, ok, err := EnvBool(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = b
		}
	}

	port, err := EnvInt(EnvSMTPPort)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.SMTP.Port = port
	}
	return nil
}
