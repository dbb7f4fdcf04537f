package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"pocket-ledger-go/pkg/logger"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	HTTPPort           string
	Env                string
	CORSAllowedOrigins []string
	CategoriesCacheTTL time.Duration
	DB                 DBConfig
	Auth               AuthConfig
	FX                 FXConfig
}

type DBConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	JWTSecret     string
	SkipAuth      bool
	MockUserID    string
	MockUserEmail string
	MockUserName  string
}

type FXConfig struct {
	Enabled  bool
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		CategoriesCacheTTL: getEnvDuration("CATEGORIES_CACHE_TTL", 5*time.Minute),
		DB:                 LoadDB(),
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
			SkipAuth:      getEnvBool("AUTH_SKIP", false),
			MockUserID:    getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail: getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:  getEnv("AUTH_MOCK_USER_NAME", ""),
		},
		FX: FXConfig{
			Enabled:  getEnvBool("FX_ENABLED", true),
			BaseURL:  getEnv("FX_BASE_URL", "https://open.er-api.com/v6"),
			Timeout:  getEnvDuration("FX_TIMEOUT", 5*time.Second),
			CacheTTL: getEnvDuration("FX_CACHE_TTL", 10*time.Minute),
		},
	}

	if !cfg.Auth.SkipAuth && cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("AUTH_JWT_SECRET is required unless AUTH_SKIP is set")
	}
	return cfg, nil
}

// LoadDBWithDotEnv applies the .env file and then reads the database
// settings.
func LoadDBWithDotEnv(log logger.Logger) (DBConfig, error) {
	if err := loadDotEnv(log); err != nil {
		return DBConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadDB(), nil
}

// LoadDB reads only the database settings. Maintenance commands use it
// without the HTTP and auth settings.
func LoadDB() DBConfig {
	driver := strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	defaultPort := "5432"
	defaultUser := "postgres"
	if driver == DriverMySQL {
		defaultPort = "3306"
		defaultUser = "root"
	}

	return DBConfig{
		Driver:          driver,
		DSN:             getEnv("DB_DSN", ""),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnv("DB_PORT", defaultPort),
		User:            getEnv("DB_USER", defaultUser),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Name:            getEnv("DB_NAME", "pocket_ledger"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == DriverMySQL {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			loc = time.UTC
		}
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, c.Port)
		cfg.DBName = c.Name
		cfg.ParseTime = true
		cfg.Loc = loc
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		return cfg.FormatDSN()
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
