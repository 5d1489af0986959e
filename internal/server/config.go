package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"sensorman/internal/domain/errors"
)

type Config struct {
	Addr          string
	Port          int
	DBStr         string
	MigratePath   string
	SessionSecret string
	SessionTTLMin int
	LogLevel      string
	LogFormat     string
}

const (
	defaultAddr          = "0.0.0.0"
	defaultPort          = 8080
	defaultDBStr         = "postgresql://shouldbeinVaultuser:shouldbeinVaultpassword@db:5432/sensors?sslmode=disable"
	defaultMigratePath   = "migrations"
	defaultSessionSecret = "dev-secret-change-me"
	defaultSessionTTLMin = 60
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

var (
	addr          = flag.String("addr", defaultAddr, "адрес сервера (по умолчанию 0.0.0.0)")
	port          = flag.Int("port", defaultPort, "порт сервера (по умолчанию 8080)")
	dbstr         = flag.String("dbstr", defaultDBStr, "строка подключения к БД (по умолчанию стандартная)")
	dbDsn         = flag.String("dbdsn", "", "DSN для подключения к базе данных (приоритетнее dbstr)")
	migratePath   = flag.String("migratepath", defaultMigratePath, "путь к папке с миграциями")
	sessionSecret = flag.String("sessionsecret", "", "секрет подписи сессионного токена")
	configFile    = flag.String("c", "", "путь к файлу конфигурации JSON")
	logLevel      = flag.String("loglevel", defaultLogLevel, "уровень логирования")
	parsed        = false
)

func ReadConfig() *Config {
	if !parsed {
		flag.Parse()
		parsed = true
	}

	cfg := &Config{
		Addr:          defaultAddr,
		Port:          defaultPort,
		DBStr:         defaultDBStr,
		MigratePath:   defaultMigratePath,
		SessionSecret: defaultSessionSecret,
		SessionTTLMin: defaultSessionTTLMin,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}

	if jsonConfig := loadJSONConfig(); jsonConfig != nil {
		cfg = jsonConfig
	}

	cfg = applyEnvOverrides(cfg)
	cfg = applyFlagOverrides(cfg)

	if cfg.SessionTTLMin <= 0 {
		cfg.SessionTTLMin = defaultSessionTTLMin
	}

	return cfg
}

func loadJSONConfig() *Config {
	configPath := *configFile
	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}

	if configPath == "" {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Printf("Warning: %s %s: %v\n", errors.ErrConfigFileReadFailed.Error(), configPath, err)
		return nil
	}

	var jsonConfig Config
	if err := json.Unmarshal(data, &jsonConfig); err != nil {
		fmt.Printf("Warning: %s: %v\n", errors.ErrConfigParseFailed.Error(), err)
		return nil
	}

	fmt.Printf("JSON конфигурация успешно загружена из: %s\n", configPath)
	return &jsonConfig
}

func applyEnvOverrides(cfg *Config) *Config {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err != nil {
			fmt.Printf("Warning: %s в переменной окружения PORT: %s\n", errors.ErrConfigInvalidFormat.Error(), port)
		} else if p < 1 || p > 65535 {
			fmt.Printf("Warning: %s - порт должен быть от 1 до 65535: %d\n", errors.ErrConfigInvalidFormat.Error(), p)
		} else {
			cfg.Port = p
		}
	}
	if dbStr := os.Getenv("DB_STR"); dbStr != "" {
		cfg.DBStr = dbStr
	}
	if migratePath := os.Getenv("MIGRATE_PATH"); migratePath != "" {
		cfg.MigratePath = migratePath
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = secret
	}
	if ttl := os.Getenv("SESSION_TTL_MINUTES"); ttl != "" {
		if m, err := strconv.Atoi(ttl); err != nil || m < 1 {
			fmt.Printf("Warning: %s в переменной окружения SESSION_TTL_MINUTES: %s\n", errors.ErrConfigInvalidFormat.Error(), ttl)
		} else {
			cfg.SessionTTLMin = m
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}

	return cfg
}

// applyFlagOverrides применяет только флаги, заданные явно, чтобы значения
// по умолчанию не затирали JSON и переменные окружения.
func applyFlagOverrides(cfg *Config) *Config {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "port":
			cfg.Port = *port
		case "dbstr":
			cfg.DBStr = *dbstr
		case "migratepath":
			cfg.MigratePath = *migratePath
		case "sessionsecret":
			cfg.SessionSecret = *sessionSecret
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})

	if *dbDsn != "" {
		cfg.DBStr = *dbDsn
	}

	return cfg
}
