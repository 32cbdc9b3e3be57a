package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nguyensondev/epass-web/internal/config"
	apperrors "github.com/nguyensondev/epass-web/internal/errors"
)

// SessionManager issues and verifies the signed web-session tokens handed
// to the browser after a successful OTP login. These are unrelated to the
// operator tokens managed by the epass package.
type SessionManager struct {
	secret []byte
	config config.SecurityConfig
}

func NewSessionManager(cfg config.SecurityConfig) *SessionManager {
	return &SessionManager{
		secret: []byte(cfg.GetJWTSecret()),
		config: cfg,
	}
}

// Sign creates a session token for the phone number.
func (m *SessionManager) Sign(phoneNumber string) (string, error) {
	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"phoneNumber": phoneNumber,
		"iat":         now.Unix(),
		"exp":         now.Add(m.config.GetSessionExpiry()).Unix(),
		"jti":         uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify validates a session token and returns the phone number it was
// issued for.
func (m *SessionManager) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperrors.ErrSessionExpired
		}
		return "", apperrors.Wrapf(apperrors.ErrInvalidSession, "%v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperrors.ErrInvalidSession
	}
	phoneNumber, _ := claims["phoneNumber"].(string)
	if phoneNumber == "" {
		return "", apperrors.ErrInvalidSession
	}
	return phoneNumber, nil
}
