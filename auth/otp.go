package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nguyensondev/epass-web/internal/config"
	apperrors "github.com/nguyensondev/epass-web/internal/errors"
	"github.com/nguyensondev/epass-web/store"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// OTPService issues and verifies one-time login codes. Codes are stored
// bcrypt-hashed and are single-use: a successful verification consumes
// the record.
type OTPService struct {
	otps   store.OTPStore
	config config.SecurityConfig
}

func NewOTPService(otps store.OTPStore, cfg config.SecurityConfig) *OTPService {
	return &OTPService{
		otps:   otps,
		config: cfg,
	}
}

// Issue generates a 6-digit code for the phone number and stores its hash.
// The clear code is returned once, for delivery, and never persisted.
func (s *OTPService) Issue(ctx context.Context, phoneNumber string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	rec := store.OTPRecord{
		PhoneNumber: store.NormalizePhone(phoneNumber),
		CodeHash:    string(hash),
		ExpiresAt:   NowTimeFunc().Add(s.config.GetOTPExpiry()),
	}
	if err := s.otps.SetOTP(ctx, rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks the code against the stored hash. An expired record is
// deleted and reported as expired; a matching code is consumed.
func (s *OTPService) Verify(ctx context.Context, phoneNumber, code string) error {
	normalized := store.NormalizePhone(phoneNumber)

	rec, err := s.otps.GetOTP(ctx, normalized)
	if err != nil {
		return apperrors.ErrOTPNotFound
	}

	if NowTimeFunc().After(rec.ExpiresAt) {
		_ = s.otps.DeleteOTP(ctx, normalized)
		return apperrors.ErrOTPExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		return apperrors.ErrInvalidOTP
	}

	if err := s.otps.DeleteOTP(ctx, normalized); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

// generateCode returns a uniformly random 6-digit code, zero padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
