package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/nguyensondev/epass-web/internal/errors"
)

func TestSessionSignAndVerify(t *testing.T) {
	sessions := NewSessionManager(testSecurityConfig{})

	token, err := sessions.Sign("0912345678")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	phone, err := sessions.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "0912345678", phone)
}

func TestSessionRejectsForeignSignature(t *testing.T) {
	token, err := NewSessionManager(testSecurityConfig{}).Sign("0912345678")
	require.NoError(t, err)

	other := &SessionManager{secret: []byte("different-secret"), config: testSecurityConfig{}}
	_, err = other.Verify(token)
	require.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestSessionRejectsGarbage(t *testing.T) {
	sessions := NewSessionManager(testSecurityConfig{})
	_, err := sessions.Verify("not-a-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestSessionExpires(t *testing.T) {
	restoreClock(t)

	sessions := NewSessionManager(testSecurityConfig{})

	issued := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return issued }

	token, err := sessions.Sign("0912345678")
	require.NoError(t, err)

	NowTimeFunc = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = sessions.Verify(token)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}
