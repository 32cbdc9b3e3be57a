package epass

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/nguyensondev/epass-web/internal/config"
	"github.com/nguyensondev/epass-web/store"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// refreshBuffer is how long before the access token's expiry a refresh is
// triggered, so a token is never presented to the operator moments before
// it lapses.
const refreshBuffer = 5 * time.Minute

// tokenState is the cached access/refresh pair. It is replaced wholesale
// on every refresh or re-authentication, never mutated in place.
type tokenState struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// TokenManager owns the process-wide operator token cache. It lazily
// resolves an initial pair from an ordered list of token stores, keeps it
// fresh via the refresh-token grant, and falls back to a password grant
// when the refresh token itself is rejected. All state transitions happen
// under a single mutex so concurrent callers never race a refresh.
type TokenManager struct {
	cfg         config.EpassConfig
	tokenStores []store.TokenStore      // resolution and persistence order
	credStores  []store.CredentialStore // same precedence as tokenStores

	httpClient *http.Client

	mu    sync.Mutex
	state *tokenState
}

type TokenManagerOption func(*TokenManager)

// WithHTTPClient overrides the HTTP client used for token endpoint calls.
func WithHTTPClient(client *http.Client) TokenManagerOption {
	return func(m *TokenManager) {
		m.httpClient = client
	}
}

func NewTokenManager(cfg config.EpassConfig, tokenStores []store.TokenStore, credStores []store.CredentialStore, options ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		cfg:         cfg,
		tokenStores: tokenStores,
		credStores:  credStores,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// AccessToken returns a valid access token, refreshing first when the
// cached one is within the refresh buffer of its expiry.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initLocked(ctx); err != nil {
		return "", err
	}
	if m.needsRefreshLocked() {
		return m.refreshLocked(ctx)
	}
	return m.state.accessToken, nil
}

// ForceRefresh discards the cached access token and performs a refresh
// grant immediately. Used by the client when the operator answers 401
// despite a token that looked valid locally.
func (m *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initLocked(ctx); err != nil {
		return "", err
	}
	return m.refreshLocked(ctx)
}

// NeedsRefresh reports whether the cached token is missing, expired, or
// within the refresh buffer of its expiry.
func (m *TokenManager) NeedsRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == nil || m.needsRefreshLocked()
}

func (m *TokenManager) needsRefreshLocked() bool {
	return !NowTimeFunc().Before(m.state.expiresAt.Add(-refreshBuffer))
}

// initLocked resolves the initial token pair from the configured stores in
// priority order. The first store that yields both an access and a refresh
// token wins; later stores are not consulted.
func (m *TokenManager) initLocked(ctx context.Context) error {
	if m.state != nil {
		return nil
	}

	for _, ts := range m.tokenStores {
		pair, err := ts.GetTokens(ctx)
		if err != nil || pair == nil {
			continue
		}
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			continue
		}
		m.state = &tokenState{
			accessToken:  pair.AccessToken,
			refreshToken: pair.RefreshToken,
			expiresAt:    tokenExpiry(pair.AccessToken),
		}
		return nil
	}
	return ErrTokenNotConfigured
}

// refreshLocked performs a refresh-token grant. A 400/401 from the token
// endpoint means the refresh token itself is gone; that is treated as a
// recoverable condition and handed to the password-grant fallback rather
// than surfaced to the caller.
func (m *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	conf := m.oauthConfig()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: m.state.refreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			log.Warn().Int("status", re.Response.StatusCode).Msg("refresh token rejected, re-authenticating with credentials")
			return m.reauthenticateLocked(ctx)
		}
		return "", fmt.Errorf("refresh token grant: %w", err)
	}

	m.replaceStateLocked(ctx, tok)
	return m.state.accessToken, nil
}

// reauthenticateLocked performs a password grant using stored credentials.
func (m *TokenManager) reauthenticateLocked(ctx context.Context) (string, error) {
	var creds *store.Credentials
	for _, cs := range m.credStores {
		c, err := cs.GetCredentials(ctx)
		if err != nil || c == nil {
			continue
		}
		if c.Username != "" && c.Password != "" {
			creds = c
			break
		}
	}
	if creds == nil {
		return "", fmt.Errorf("%w: no account credentials configured", ErrAuthentication)
	}

	conf := m.oauthConfig()
	tok, err := conf.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return "", fmt.Errorf("%w: password grant rejected: %v", ErrAuthentication, err)
	}

	m.replaceStateLocked(ctx, tok)
	log.Info().Msg("re-authenticated with operator credentials")
	return m.state.accessToken, nil
}

// replaceStateLocked swaps in a freshly granted token pair and persists it.
// When the grant response carries no refresh token the previous one is
// kept. Persistence failures never fail the in-flight request: the stores
// are tried in order and a total miss is logged, the pair staying valid in
// memory for the rest of the process lifetime.
func (m *TokenManager) replaceStateLocked(ctx context.Context, tok *oauth2.Token) {
	refreshToken := tok.RefreshToken
	if refreshToken == "" && m.state != nil {
		refreshToken = m.state.refreshToken
	}
	m.state = &tokenState{
		accessToken:  tok.AccessToken,
		refreshToken: refreshToken,
		expiresAt:    tok.Expiry,
	}

	pair := store.TokenPair{AccessToken: m.state.accessToken, RefreshToken: m.state.refreshToken}
	for _, ts := range m.tokenStores {
		if err := ts.SetTokens(ctx, pair); err == nil {
			return
		}
	}
	log.Warn().Msg("could not persist refreshed epass tokens, keeping them in memory only")
}

func (m *TokenManager) oauthConfig() *oauth2.Config {
	// The operator uses a public Keycloak client, so only client_id is
	// sent, in the form body.
	return &oauth2.Config{
		ClientID: m.cfg.GetEpassClientID(),
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.cfg.GetEpassTokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// tokenExpiry reads the exp claim out of the access token without
// verifying the signature; only the operator can verify its own tokens.
// An undecodable token is treated as already expired so the first use
// refreshes it instead of presenting a token of unknown age.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		log.Warn().Err(err).Msg("stored access token has no readable expiry, treating as expired")
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
