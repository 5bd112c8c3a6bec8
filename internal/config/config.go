// Пакет config — загрузка и валидация конфигурации SDS
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации SDS.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Директория JSON-конфигураций клиентов
	ConfigDir string
	// Источники конфигураций клиентов в порядке опроса (file, env)
	ConfigSources []string
	// TTL кэша конфигураций клиентов
	ConfigTTL time.Duration
	// Tenant Azure AD для OIDC discovery
	TenantID string
	// Ожидаемый audience JWT
	Audience string
	// TTL кэша OIDC discovery документа
	OIDCTTL time.Duration
	// Интервал фонового обновления JWKS
	JWKSRefreshInterval time.Duration
	// Хост и порт демона clamd
	ClamdHost string
	ClamdPort int
	// Имя таблицы аудита (проверяется в момент записи)
	AuditTable string
	// Регион AWS для sink'а аудита
	AWSRegion string
	// Endpoint DynamoDB (опционально, для локального стенда)
	AuditEndpoint string
	// Путь к casbin-модели
	CasbinModel string
	// Пути к casbin-политикам (через ":", файлы или директории *.csv)
	CasbinPolicy string
	// Интервал перезагрузки политик
	CasbinReloadInterval time.Duration
	// Endpoint объектного хранилища (MinIO/S3)
	S3Endpoint string
	// Кредентиалы объектного хранилища
	S3AccessKey string
	S3SecretKey string
	// Использовать TLS при подключении к объектному хранилищу
	S3UseSSL bool
	// Срок жизни presigned URL скачивания
	PresignTTL time.Duration
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// SDS_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("SDS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("SDS_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SDS_PORT: значение %d вне допустимого диапазона", port)
	}
	cfg.Port = port

	// CONFIG_DIR — директория конфигураций клиентов (по умолчанию "clientconfigs")
	cfg.ConfigDir = getEnvDefault("CONFIG_DIR", "clientconfigs")

	// CONFIG_SOURCES — источники конфигураций (по умолчанию "file")
	sources := getEnvDefault("CONFIG_SOURCES", "file")
	for _, s := range strings.Split(sources, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		if s != "file" && s != "env" {
			return nil, fmt.Errorf("CONFIG_SOURCES: недопустимый источник %q, допустимые: file, env", s)
		}
		cfg.ConfigSources = append(cfg.ConfigSources, s)
	}
	if len(cfg.ConfigSources) == 0 {
		cfg.ConfigSources = []string{"file"}
	}

	// CONFIG_TTL — TTL кэша конфигураций в секундах (по умолчанию 300)
	cfg.ConfigTTL, err = getEnvSeconds("CONFIG_TTL", 300*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CONFIG_TTL: %w", err)
	}

	// TENANT_ID — обязательный
	cfg.TenantID, err = getEnvRequired("TENANT_ID")
	if err != nil {
		return nil, err
	}

	// AUDIENCE — обязательный
	cfg.Audience, err = getEnvRequired("AUDIENCE")
	if err != nil {
		return nil, err
	}

	// OIDC_TTL — TTL кэша OIDC discovery в секундах (по умолчанию 3600)
	cfg.OIDCTTL, err = getEnvSeconds("OIDC_TTL", 3600*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OIDC_TTL: %w", err)
	}

	// JWKS_REFRESH_INTERVAL — интервал обновления JWKS в секундах (по умолчанию 3600)
	cfg.JWKSRefreshInterval, err = getEnvSeconds("JWKS_REFRESH_INTERVAL", 3600*time.Second)
	if err != nil {
		return nil, fmt.Errorf("JWKS_REFRESH_INTERVAL: %w", err)
	}

	// CLAMD_HOST — хост антивирусного демона (по умолчанию localhost)
	cfg.ClamdHost = getEnvDefault("CLAMD_HOST", "localhost")

	// CLAMD_PORT — порт антивирусного демона (по умолчанию 3310)
	cfg.ClamdPort, err = getEnvInt("CLAMD_PORT", 3310)
	if err != nil {
		return nil, fmt.Errorf("CLAMD_PORT: %w", err)
	}

	// AUDIT_TABLE — имя таблицы аудита. Может отсутствовать на старте:
	// обязательность проверяется в момент записи строки аудита.
	cfg.AuditTable = getEnvDefault("AUDIT_TABLE", "")

	// AWS_REGION — регион sink'а аудита (по умолчанию eu-west-2)
	cfg.AWSRegion = getEnvDefault("AWS_REGION", "eu-west-2")

	// AUDIT_ENDPOINT — endpoint DynamoDB для локального стенда (опционально)
	cfg.AuditEndpoint = getEnvDefault("AUDIT_ENDPOINT", "")

	// CASBIN_MODEL — путь к модели авторизации
	cfg.CasbinModel = getEnvDefault("CASBIN_MODEL", "")

	// CASBIN_POLICY — пути к политикам через ":"
	cfg.CasbinPolicy = getEnvDefault("CASBIN_POLICY", "")

	// CASBIN_RELOAD_INTERVAL — интервал перезагрузки политик в секундах (по умолчанию 600)
	cfg.CasbinReloadInterval, err = getEnvSeconds("CASBIN_RELOAD_INTERVAL", 600*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CASBIN_RELOAD_INTERVAL: %w", err)
	}

	// S3_ENDPOINT — обязательный, endpoint объектного хранилища
	cfg.S3Endpoint, err = getEnvRequired("S3_ENDPOINT")
	if err != nil {
		return nil, err
	}

	// S3_ACCESS_KEY / S3_SECRET_KEY — кредентиалы хранилища
	cfg.S3AccessKey = getEnvDefault("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnvDefault("S3_SECRET_KEY", "")

	// S3_USE_SSL — TLS при подключении к хранилищу (по умолчанию false)
	cfg.S3UseSSL, err = getEnvBool("S3_USE_SSL", false)
	if err != nil {
		return nil, fmt.Errorf("S3_USE_SSL: %w", err)
	}

	// SDS_PRESIGN_TTL — срок жизни presigned URL (по умолчанию 60s)
	cfg.PresignTTL, err = getEnvDuration("SDS_PRESIGN_TTL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SDS_PRESIGN_TTL: %w", err)
	}

	// SDS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SDS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SDS_LOG_LEVEL: %w", err)
	}

	// SDS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("SDS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SDS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// SDS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("SDS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SDS_SHUTDOWN_TIMEOUT: %w", err)
	}

	// SDS_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("SDS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SDS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// SDS_DEPHEALTH_GROUP — имя группы в метриках topologymetrics
	cfg.DephealthGroup = getEnvDefault("SDS_DEPHEALTH_GROUP", "sds")

	return cfg, nil
}

// DiscoveryURL возвращает URL OIDC discovery документа tenant'а.
func (c *Config) DiscoveryURL() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0/.well-known/openid-configuration", c.TenantID)
}

// Issuer возвращает ожидаемый issuer JWT.
func (c *Config) Issuer() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", c.TenantID)
}

// ClamdAddress возвращает адрес clamd в формате go-clamd (tcp://host:port).
func (c *Config) ClamdAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.ClamdHost, c.ClamdPort)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvSeconds возвращает длительность из переменной окружения,
// заданной целым числом секунд, или значение по умолчанию.
func getEnvSeconds(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное число секунд: %q", val)
	}
	if n < 0 {
		return 0, fmt.Errorf("число секунд не может быть отрицательным: %d", n)
	}
	return time.Duration(n) * time.Second, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
