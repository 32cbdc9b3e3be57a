package checker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/store/storefakes"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetEpassBaseURL() string      { return c.baseURL }
func (c testConfig) GetEpassCrmBaseURL() string   { return c.baseURL }
func (c testConfig) GetEpassTokenURL() string     { return c.baseURL }
func (c testConfig) GetEpassClientID() string     { return "test-client" }
func (c testConfig) GetEpassCustomerID() string   { return "111" }
func (c testConfig) GetEpassContractID() string   { return "222" }
func (c testConfig) GetEpassToken() string        { return "" }
func (c testConfig) GetEpassRefreshToken() string { return "" }
func (c testConfig) GetEpassUsername() string     { return "" }
func (c testConfig) GetEpassPassword() string     { return "" }

type fakeSender struct {
	lock     sync.Mutex
	messages map[string][]string
}

func newFakeSender() *fakeSender {
	return &fakeSender{messages: make(map[string][]string)}
}

func (f *fakeSender) SendMessage(chatID, text string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages[chatID] = append(f.messages[chatID], text)
	return nil
}

func (f *fakeSender) forChat(chatID string) []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.messages[chatID]...)
}

func freshToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func operatorWith(t *testing.T, calls *int32, transactions []epass.Transaction) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"listData": transactions,
				"count":    len(transactions),
			},
		})
	}))
}

func newTestChecker(t *testing.T, apiURL string, fake *storefakes.FakeStore, sender *fakeSender) *Checker {
	t.Helper()
	cfg := testConfig{baseURL: apiURL}

	tokens := storefakes.New()
	tokens.SetStoredTokens(store.TokenPair{AccessToken: freshToken(t), RefreshToken: "refresh"})

	manager := epass.NewTokenManager(cfg, []store.TokenStore{tokens}, nil)
	client := epass.NewClient(cfg, manager)
	service := epass.NewService(cfg, client, epass.WithPageDelay(0))

	return New(service, fake, fake, sender)
}

func TestRunNotifiesLinkedUsersOfNewTransactions(t *testing.T) {
	t.Cleanup(func() { NowTimeFunc = time.Now })
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return now }

	var calls int32
	srv := operatorWith(t, &calls, []epass.Transaction{
		{ID: "new", TimestampIn: "01/03/2024 10:00:00", StationInName: "Tram 1", Price: 35000},
		{ID: "old", TimestampIn: "29/02/2024 20:00:00", StationInName: "Tram 2", Price: 40000},
	})
	defer srv.Close()

	fake := storefakes.New()
	require.NoError(t, fake.UpsertUser(context.Background(), &store.User{
		PhoneNumber:    "912345678",
		TelegramChatID: "42",
	}))
	require.NoError(t, fake.UpsertUser(context.Background(), &store.User{
		PhoneNumber: "987654321", // registered but not linked
	}))
	fake.SetStoredSettings(store.Settings{
		LastChecked: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC),
	})

	sender := newFakeSender()
	checker := newTestChecker(t, srv.URL, fake, sender)

	require.NoError(t, checker.Run(context.Background()))

	messages := sender.forChat("42")
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "Tram 1")
	require.Contains(t, messages[0], "35.000 ₫")

	settings, err := fake.GetSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, now, settings.LastChecked)
}

func TestRunSkipsWhenNoUsersRegistered(t *testing.T) {
	var calls int32
	srv := operatorWith(t, &calls, nil)
	defer srv.Close()

	checker := newTestChecker(t, srv.URL, storefakes.New(), newFakeSender())

	require.NoError(t, checker.Run(context.Background()))
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunAdvancesLastCheckedWithoutNewTransactions(t *testing.T) {
	t.Cleanup(func() { NowTimeFunc = time.Now })
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return now }

	var calls int32
	srv := operatorWith(t, &calls, []epass.Transaction{
		{ID: "old", TimestampIn: "29/02/2024 20:00:00"},
	})
	defer srv.Close()

	fake := storefakes.New()
	require.NoError(t, fake.UpsertUser(context.Background(), &store.User{
		PhoneNumber:    "912345678",
		TelegramChatID: "42",
	}))
	fake.SetStoredSettings(store.Settings{
		LastChecked: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC),
	})

	sender := newFakeSender()
	checker := newTestChecker(t, srv.URL, fake, sender)

	require.NoError(t, checker.Run(context.Background()))
	require.Empty(t, sender.forChat("42"))

	settings, err := fake.GetSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, now, settings.LastChecked)
}
