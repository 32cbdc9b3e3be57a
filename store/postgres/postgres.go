// Package postgres is the primary persistence tier, backed by a
// PostgreSQL pool. Refreshed operator tokens land here first; the sqlite
// package takes over when this store is unreachable.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/nguyensondev/epass-web/internal/errors"
	"github.com/nguyensondev/epass-web/store"
)

var (
	_ store.TokenStore      = (*Store)(nil)
	_ store.CredentialStore = (*Store)(nil)
	_ store.UserRepo        = (*Store)(nil)
	_ store.SettingsRepo    = (*Store)(nil)
	_ store.OTPStore        = (*Store)(nil)
)

type Store struct {
	pool *pgxpool.Pool
}

// Connect creates a pgx pool from a connection URL, verifies connectivity
// and applies the schema.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	return s, nil
}

func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS epass_tokens (
		id INT PRIMARY KEY CHECK (id = 1),
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS epass_credentials (
		id INT PRIMARY KEY CHECK (id = 1),
		username TEXT NOT NULL,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS users (
		phone_number TEXT PRIMARY KEY,
		telegram_chat_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS settings (
		id INT PRIMARY KEY CHECK (id = 1),
		whitelisted_phones TEXT[] NOT NULL DEFAULT '{}',
		last_checked TIMESTAMPTZ
	);
	CREATE TABLE IF NOT EXISTS otps (
		phone_number TEXT PRIMARY KEY,
		code_hash TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// ---- TokenStore ----

func (s *Store) GetTokens(ctx context.Context) (*store.TokenPair, error) {
	var pair store.TokenPair
	err := s.pool.QueryRow(ctx,
		`SELECT access_token, refresh_token FROM epass_tokens WHERE id = 1`).
		Scan(&pair.AccessToken, &pair.RefreshToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tokens: %w", err)
	}
	return &pair, nil
}

func (s *Store) SetTokens(ctx context.Context, pair store.TokenPair) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO epass_tokens (id, access_token, refresh_token, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = EXCLUDED.updated_at`,
		pair.AccessToken, pair.RefreshToken)
	if err != nil {
		return fmt.Errorf("set tokens: %w", err)
	}
	return nil
}

// ---- CredentialStore ----

func (s *Store) GetCredentials(ctx context.Context) (*store.Credentials, error) {
	var creds store.Credentials
	err := s.pool.QueryRow(ctx,
		`SELECT username, password FROM epass_credentials WHERE id = 1`).
		Scan(&creds.Username, &creds.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return &creds, nil
}

// ---- UserRepo ----

func (s *Store) UpsertUser(ctx context.Context, user *store.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (phone_number, telegram_chat_id, created_at)
		VALUES ($1, NULLIF($2, ''), $3)
		ON CONFLICT (phone_number) DO UPDATE SET
			telegram_chat_id = EXCLUDED.telegram_chat_id`,
		user.PhoneNumber, user.TelegramChatID, createdAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, phoneNumber string) (*store.User, error) {
	var (
		user   store.User
		chatID *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT phone_number, telegram_chat_id, created_at FROM users WHERE phone_number = $1`,
		phoneNumber).Scan(&user.PhoneNumber, &chatID, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if chatID != nil {
		user.TelegramChatID = *chatID
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*store.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT phone_number, telegram_chat_id, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var (
			user   store.User
			chatID *string
		)
		if err := rows.Scan(&user.PhoneNumber, &chatID, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if chatID != nil {
			user.TelegramChatID = *chatID
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (s *Store) SetTelegramChatID(ctx context.Context, phoneNumber, chatID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET telegram_chat_id = $1 WHERE phone_number = $2`, chatID, phoneNumber)
	if err != nil {
		return fmt.Errorf("set telegram chat id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *Store) ClearTelegramChatID(ctx context.Context, phoneNumber string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET telegram_chat_id = NULL WHERE phone_number = $1`, phoneNumber)
	if err != nil {
		return fmt.Errorf("clear telegram chat id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ---- SettingsRepo ----

func (s *Store) GetSettings(ctx context.Context) (*store.Settings, error) {
	var (
		settings    store.Settings
		lastChecked *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT whitelisted_phones, last_checked FROM settings WHERE id = 1`).
		Scan(&settings.WhitelistedPhones, &lastChecked)
	if errors.Is(err, pgx.ErrNoRows) {
		return &store.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if lastChecked != nil {
		settings.LastChecked = *lastChecked
	}
	return &settings, nil
}

func (s *Store) SetLastChecked(ctx context.Context, t time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE settings SET last_checked = $1 WHERE id = 1`, t)
	if err != nil {
		return fmt.Errorf("set last checked: %w", err)
	}
	return nil
}

func (s *Store) AddWhitelistedPhone(ctx context.Context, phoneNumber string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE settings
		SET whitelisted_phones = array_append(whitelisted_phones, $1)
		WHERE id = 1 AND NOT ($1 = ANY(whitelisted_phones))`,
		phoneNumber)
	if err != nil {
		return fmt.Errorf("add whitelisted phone: %w", err)
	}
	return nil
}

func (s *Store) RemoveWhitelistedPhone(ctx context.Context, phoneNumber string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE settings
		SET whitelisted_phones = array_remove(whitelisted_phones, $1)
		WHERE id = 1`,
		phoneNumber)
	if err != nil {
		return fmt.Errorf("remove whitelisted phone: %w", err)
	}
	return nil
}

// ---- OTPStore ----

func (s *Store) SetOTP(ctx context.Context, rec store.OTPRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO otps (phone_number, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at`,
		rec.PhoneNumber, rec.CodeHash, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return nil
}

func (s *Store) GetOTP(ctx context.Context, phoneNumber string) (*store.OTPRecord, error) {
	var rec store.OTPRecord
	err := s.pool.QueryRow(ctx,
		`SELECT phone_number, code_hash, expires_at FROM otps WHERE phone_number = $1`,
		phoneNumber).Scan(&rec.PhoneNumber, &rec.CodeHash, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	return &rec, nil
}

func (s *Store) DeleteOTP(ctx context.Context, phoneNumber string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM otps WHERE phone_number = $1`, phoneNumber)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
