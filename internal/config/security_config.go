package config

import "time"

type SecurityConfig interface {
	GetJWTSecret() string
	GetSessionExpiry() time.Duration
	GetOTPExpiry() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production")
}

func (Security) GetSessionExpiry() time.Duration {
	return 365 * 24 * time.Hour // Sessions last until the user logs out
}

func (Security) GetOTPExpiry() time.Duration {
	return 5 * time.Minute
}
