// Package storefakes provides an in-memory implementation of the store
// interfaces for tests.
package storefakes

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/nguyensondev/epass-web/internal/errors"
	"github.com/nguyensondev/epass-web/store"
)

var (
	_ store.TokenStore      = (*FakeStore)(nil)
	_ store.CredentialStore = (*FakeStore)(nil)
	_ store.UserRepo        = (*FakeStore)(nil)
	_ store.SettingsRepo    = (*FakeStore)(nil)
	_ store.OTPStore        = (*FakeStore)(nil)
)

type FakeStore struct {
	lock sync.RWMutex

	tokens   *store.TokenPair
	creds    *store.Credentials
	users    map[string]*store.User
	settings store.Settings
	otps     map[string]store.OTPRecord

	// Error injection for fallback-path tests.
	GetTokensErr error
	SetTokensErr error

	SetTokensCalls int
}

func New() *FakeStore {
	return &FakeStore{
		users: make(map[string]*store.User),
		otps:  make(map[string]store.OTPRecord),
	}
}

func (f *FakeStore) GetTokens(ctx context.Context) (*store.TokenPair, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.GetTokensErr != nil {
		return nil, f.GetTokensErr
	}
	if f.tokens == nil {
		return nil, apperrors.ErrNotFound
	}
	pair := *f.tokens
	return &pair, nil
}

func (f *FakeStore) SetTokens(ctx context.Context, pair store.TokenPair) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SetTokensCalls++
	if f.SetTokensErr != nil {
		return f.SetTokensErr
	}
	f.tokens = &pair
	return nil
}

func (f *FakeStore) SetStoredTokens(pair store.TokenPair) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.tokens = &pair
}

func (f *FakeStore) StoredTokens() *store.TokenPair {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.tokens == nil {
		return nil
	}
	pair := *f.tokens
	return &pair
}

func (f *FakeStore) GetCredentials(ctx context.Context) (*store.Credentials, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.creds == nil {
		return nil, apperrors.ErrNotFound
	}
	creds := *f.creds
	return &creds, nil
}

func (f *FakeStore) SetStoredCredentials(creds store.Credentials) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.creds = &creds
}

func (f *FakeStore) UpsertUser(ctx context.Context, user *store.User) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	saved := *user
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	f.users[saved.PhoneNumber] = &saved
	return nil
}

func (f *FakeStore) GetUser(ctx context.Context, phoneNumber string) (*store.User, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	user, ok := f.users[phoneNumber]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *FakeStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	users := make([]*store.User, 0, len(f.users))
	for _, user := range f.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

func (f *FakeStore) SetTelegramChatID(ctx context.Context, phoneNumber, chatID string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	user, ok := f.users[phoneNumber]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.TelegramChatID = chatID
	return nil
}

func (f *FakeStore) ClearTelegramChatID(ctx context.Context, phoneNumber string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	user, ok := f.users[phoneNumber]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.TelegramChatID = ""
	return nil
}

func (f *FakeStore) GetSettings(ctx context.Context) (*store.Settings, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	settings := f.settings
	settings.WhitelistedPhones = append([]string(nil), f.settings.WhitelistedPhones...)
	return &settings, nil
}

func (f *FakeStore) SetStoredSettings(settings store.Settings) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.settings = settings
}

func (f *FakeStore) SetLastChecked(ctx context.Context, t time.Time) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.settings.LastChecked = t
	return nil
}

func (f *FakeStore) AddWhitelistedPhone(ctx context.Context, phoneNumber string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.settings.IsWhitelisted(phoneNumber) {
		return nil
	}
	f.settings.WhitelistedPhones = append(f.settings.WhitelistedPhones, phoneNumber)
	return nil
}

func (f *FakeStore) RemoveWhitelistedPhone(ctx context.Context, phoneNumber string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	normalized := store.NormalizePhone(phoneNumber)
	phones := make([]string, 0, len(f.settings.WhitelistedPhones))
	for _, phone := range f.settings.WhitelistedPhones {
		if store.NormalizePhone(phone) != normalized {
			phones = append(phones, phone)
		}
	}
	f.settings.WhitelistedPhones = phones
	return nil
}

func (f *FakeStore) SetOTP(ctx context.Context, rec store.OTPRecord) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.otps[rec.PhoneNumber] = rec
	return nil
}

func (f *FakeStore) GetOTP(ctx context.Context, phoneNumber string) (*store.OTPRecord, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	rec, ok := f.otps[phoneNumber]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rec, nil
}

func (f *FakeStore) DeleteOTP(ctx context.Context, phoneNumber string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.otps, phoneNumber)
	return nil
}
