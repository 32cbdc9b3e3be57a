// Package sqlite is the secondary, single-box persistence tier: a local
// SQLite file used when PostgreSQL is unavailable or not configured. It
// mirrors the full store surface so a small deployment can run on it
// alone, and serves as the fallback target for refreshed operator tokens.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Blank import registers the pure-Go sqlite driver.
	_ "modernc.org/sqlite"

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
	db   *sql.DB
	path string
}

// Open creates the database file (and its directory) if needed,
// configures it for concurrent readers and applies the schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS epass_tokens (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS epass_credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		username TEXT NOT NULL,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS users (
		phone_number TEXT PRIMARY KEY,
		telegram_chat_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		whitelisted_phones TEXT NOT NULL DEFAULT '[]',
		last_checked TEXT
	);
	CREATE TABLE IF NOT EXISTS otps (
		phone_number TEXT PRIMARY KEY,
		code_hash TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);
	INSERT OR IGNORE INTO settings (id, whitelisted_phones) VALUES (1, '[]');
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---- TokenStore ----

func (s *Store) GetTokens(ctx context.Context) (*store.TokenPair, error) {
	var pair store.TokenPair
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM epass_tokens WHERE id = 1`).
		Scan(&pair.AccessToken, &pair.RefreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tokens: %w", err)
	}
	return &pair, nil
}

func (s *Store) SetTokens(ctx context.Context, pair store.TokenPair) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO epass_tokens (id, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at`,
		pair.AccessToken, pair.RefreshToken, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("set tokens: %w", err)
	}
	return nil
}

// ---- CredentialStore ----

func (s *Store) GetCredentials(ctx context.Context) (*store.Credentials, error) {
	var creds store.Credentials
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password FROM epass_credentials WHERE id = 1`).
		Scan(&creds.Username, &creds.Password)
	if errors.Is(err, sql.ErrNoRows) {
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (phone_number, telegram_chat_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (phone_number) DO UPDATE SET
			telegram_chat_id = excluded.telegram_chat_id`,
		user.PhoneNumber, nullable(user.TelegramChatID), formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, phoneNumber string) (*store.User, error) {
	var (
		user      store.User
		chatID    sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT phone_number, telegram_chat_id, created_at FROM users WHERE phone_number = ?`,
		phoneNumber).Scan(&user.PhoneNumber, &chatID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.TelegramChatID = chatID.String
	user.CreatedAt = parseTime(createdAt)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*store.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phone_number, telegram_chat_id, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var (
			user      store.User
			chatID    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&user.PhoneNumber, &chatID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.TelegramChatID = chatID.String
		user.CreatedAt = parseTime(createdAt)
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (s *Store) SetTelegramChatID(ctx context.Context, phoneNumber, chatID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = ? WHERE phone_number = ?`, chatID, phoneNumber)
	if err != nil {
		return fmt.Errorf("set telegram chat id: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) ClearTelegramChatID(ctx context.Context, phoneNumber string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = NULL WHERE phone_number = ?`, phoneNumber)
	if err != nil {
		return fmt.Errorf("clear telegram chat id: %w", err)
	}
	return requireRowAffected(result)
}

// ---- SettingsRepo ----

func (s *Store) GetSettings(ctx context.Context) (*store.Settings, error) {
	var (
		phonesJSON  string
		lastChecked sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT whitelisted_phones, last_checked FROM settings WHERE id = 1`).
		Scan(&phonesJSON, &lastChecked)
	if errors.Is(err, sql.ErrNoRows) {
		return &store.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	settings := &store.Settings{}
	if err := json.Unmarshal([]byte(phonesJSON), &settings.WhitelistedPhones); err != nil {
		return nil, fmt.Errorf("decode whitelist: %w", err)
	}
	if lastChecked.Valid {
		settings.LastChecked = parseTime(lastChecked.String)
	}
	return settings, nil
}

func (s *Store) SetLastChecked(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE settings SET last_checked = ? WHERE id = 1`, formatTime(t))
	if err != nil {
		return fmt.Errorf("set last checked: %w", err)
	}
	return nil
}

func (s *Store) AddWhitelistedPhone(ctx context.Context, phoneNumber string) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.IsWhitelisted(phoneNumber) {
		return nil
	}
	phones := append(settings.WhitelistedPhones, phoneNumber)
	return s.saveWhitelist(ctx, phones)
}

func (s *Store) RemoveWhitelistedPhone(ctx context.Context, phoneNumber string) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	normalized := store.NormalizePhone(phoneNumber)
	phones := make([]string, 0, len(settings.WhitelistedPhones))
	for _, phone := range settings.WhitelistedPhones {
		if store.NormalizePhone(phone) != normalized {
			phones = append(phones, phone)
		}
	}
	return s.saveWhitelist(ctx, phones)
}

func (s *Store) saveWhitelist(ctx context.Context, phones []string) error {
	encoded, err := json.Marshal(phones)
	if err != nil {
		return fmt.Errorf("encode whitelist: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE settings SET whitelisted_phones = ? WHERE id = 1`, string(encoded))
	if err != nil {
		return fmt.Errorf("save whitelist: %w", err)
	}
	return nil
}

// ---- OTPStore ----

func (s *Store) SetOTP(ctx context.Context, rec store.OTPRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO otps (phone_number, code_hash, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (phone_number) DO UPDATE SET
			code_hash = excluded.code_hash,
			expires_at = excluded.expires_at`,
		rec.PhoneNumber, rec.CodeHash, formatTime(rec.ExpiresAt))
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return nil
}

func (s *Store) GetOTP(ctx context.Context, phoneNumber string) (*store.OTPRecord, error) {
	var (
		rec       store.OTPRecord
		expiresAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT phone_number, code_hash, expires_at FROM otps WHERE phone_number = ?`,
		phoneNumber).Scan(&rec.PhoneNumber, &rec.CodeHash, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	rec.ExpiresAt = parseTime(expiresAt)
	return &rec, nil
}

func (s *Store) DeleteOTP(ctx context.Context, phoneNumber string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM otps WHERE phone_number = ?`, phoneNumber)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Times are stored as RFC 3339 strings; the sqlite driver has no native
// time type.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
