package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	CorsConfig
	EpassConfig
	TelegramConfig
	StorageConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Epass
	Telegram
	Storage
	Security
}

func New() Config {
	// Optional .env for local development; deployed instances set the
	// environment directly.
	_ = godotenv.Load()
	return mainConfig{}
}
