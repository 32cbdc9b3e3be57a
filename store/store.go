// Package store defines the persistence contracts for the ePass manager:
// operator token/credential storage, registered users, whitelist settings
// and one-time login codes. Implementations live in the postgres (primary),
// sqlite (secondary/local) and envstore (read-only fallback) sub-packages.
package store

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// TokenPair is a stored operator access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Credentials are the operator account username/password used for the
// password-grant fallback when the refresh token is rejected.
type Credentials struct {
	Username string
	Password string
}

// User is a person allowed to use the system, keyed by phone number.
type User struct {
	PhoneNumber    string
	TelegramChatID string // empty when no Telegram account is linked
	CreatedAt      time.Time
}

// Settings is the single application-wide settings row.
type Settings struct {
	WhitelistedPhones []string
	LastChecked       time.Time // zero when no transaction check has run yet
}

// OTPRecord is a pending one-time login code. CodeHash is a bcrypt hash,
// the clear code is never persisted.
type OTPRecord struct {
	PhoneNumber string
	CodeHash    string
	ExpiresAt   time.Time
}

// TokenStore persists the operator token pair. Get returns ErrNotFound when
// no pair has been stored.
type TokenStore interface {
	GetTokens(ctx context.Context) (*TokenPair, error)
	SetTokens(ctx context.Context, pair TokenPair) error
}

// CredentialStore reads the operator account credentials. Implementations
// are read paths only; credentials are provisioned out of band.
type CredentialStore interface {
	GetCredentials(ctx context.Context) (*Credentials, error)
}

// Method names are distinct across interfaces so one backend type can
// implement the whole store surface.
type UserRepo interface {
	UpsertUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, phoneNumber string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	SetTelegramChatID(ctx context.Context, phoneNumber, chatID string) error
	ClearTelegramChatID(ctx context.Context, phoneNumber string) error
}

type SettingsRepo interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SetLastChecked(ctx context.Context, t time.Time) error
	AddWhitelistedPhone(ctx context.Context, phoneNumber string) error
	RemoveWhitelistedPhone(ctx context.Context, phoneNumber string) error
}

type OTPStore interface {
	SetOTP(ctx context.Context, rec OTPRecord) error
	GetOTP(ctx context.Context, phoneNumber string) (*OTPRecord, error)
	DeleteOTP(ctx context.Context, phoneNumber string) error
}

var phoneStripPattern = regexp.MustCompile(`^\+84|^0`)

// NormalizePhone reduces a Vietnamese phone number to a comparable form:
// the +84 country prefix or a leading zero is removed along with all
// whitespace, so "+84 912 345 678", "0912345678" and "912345678" all
// compare equal.
func NormalizePhone(phone string) string {
	phone = strings.Join(strings.Fields(phone), "")
	return phoneStripPattern.ReplaceAllString(phone, "")
}

// IsWhitelisted reports whether phone matches any whitelisted entry after
// normalization.
func (s *Settings) IsWhitelisted(phone string) bool {
	normalized := NormalizePhone(phone)
	for _, entry := range s.WhitelistedPhones {
		if NormalizePhone(entry) == normalized {
			return true
		}
	}
	return false
}
