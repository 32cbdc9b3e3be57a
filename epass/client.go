package epass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/internal/config"
)

// Client issues authenticated calls against the operator API. Every call
// carries a bearer token from the TokenManager; a single 401 triggers one
// forced refresh and one retry, a second 401 is handed back to the caller.
type Client struct {
	baseURL    string
	tokens     *TokenManager
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithClientHTTP overrides the HTTP client used for operator API calls.
func WithClientHTTP(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(cfg config.EpassConfig, tokens *TokenManager, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    cfg.GetEpassBaseURL(),
		tokens:     tokens,
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Get performs an authenticated GET against the operator API and returns
// the response body. The endpoint may be a path relative to the doisoat
// base URL or an absolute URL (CRM endpoints, proxied endpoints).
//
// Token lifecycle errors (ErrTokenNotConfigured, ErrAuthentication)
// propagate unchanged; retrying cannot fix a missing-credentials
// condition. Non-2xx responses become an *UpstreamError.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	requestURL := c.requestURL(endpoint, query)

	resp, err := c.do(ctx, requestURL, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		log.Info().Str("url", endpoint).Msg("operator returned 401, refreshing token and retrying once")

		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = c.do(ctx, requestURL, token)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read operator response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, requestURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build operator request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call operator api: %w", err)
	}
	return resp, nil
}

func (c *Client) requestURL(endpoint string, query url.Values) string {
	full := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		full = c.baseURL + endpoint
	}
	if len(query) > 0 {
		separator := "?"
		if strings.Contains(full, "?") {
			separator = "&"
		}
		full += separator + query.Encode()
	}
	return full
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
