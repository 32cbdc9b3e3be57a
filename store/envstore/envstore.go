// Package envstore is the last-resort token and credential source: a
// static pair provided through the environment. It is read-only; writing
// refreshed tokens back to the environment makes no sense, so SetTokens
// reports ErrUnsupported and the caller falls through to the next store.
package envstore

import (
	"context"

	"github.com/nguyensondev/epass-web/internal/config"
	apperrors "github.com/nguyensondev/epass-web/internal/errors"
	"github.com/nguyensondev/epass-web/store"
)

var (
	_ store.TokenStore      = (*Store)(nil)
	_ store.CredentialStore = (*Store)(nil)
)

type Store struct {
	cfg config.EpassConfig
}

func New(cfg config.EpassConfig) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) GetTokens(ctx context.Context) (*store.TokenPair, error) {
	access := s.cfg.GetEpassToken()
	refresh := s.cfg.GetEpassRefreshToken()
	if access == "" || refresh == "" {
		return nil, apperrors.ErrNotFound
	}
	return &store.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Store) SetTokens(ctx context.Context, pair store.TokenPair) error {
	return apperrors.ErrUnsupported
}

func (s *Store) GetCredentials(ctx context.Context) (*store.Credentials, error) {
	username := s.cfg.GetEpassUsername()
	password := s.cfg.GetEpassPassword()
	if username == "" || password == "" {
		return nil, apperrors.ErrNotFound
	}
	return &store.Credentials{Username: username, Password: password}, nil
}
