package config

import (
	"os"
	"time"
)

// Config - конфигурация приложения из переменных окружения
type Config struct {
	AppPort       string
	StorageDriver string // "memory" или "postgres"

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret     string
	JWTExpiration time.Duration

	// Учетная запись библиотекаря, создаваемая при старте
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// Load читает конфигурацию из окружения, подставляя значения по умолчанию
func Load() *Config {
	jwtExpiration, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		jwtExpiration = 24 * time.Hour
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		StorageDriver: getEnv("STORAGE_DRIVER", "memory"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "123"),
		DBName:     getEnv("DB_NAME", "biblio"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		JWTSecret:     getEnv("JWT_SECRET", "default_secret_key"),
		JWTExpiration: jwtExpiration,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@biblio.local"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
