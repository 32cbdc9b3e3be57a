package epass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func balanceServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/111/contracts/222/ocsInfo", r.URL.Path)
		_, _ = w.Write([]byte(payload))
	}))
}

func TestFetchBalance(t *testing.T) {
	srv := balanceServer(t, `{
		"mess": {"code": 1, "description": "success"},
		"data": {"balance": 250000, "contractNo": "CT-001", "accountUser": "someone"}
	}`)
	defer srv.Close()

	cfg := testConfig{crmBaseURL: srv.URL}
	service := NewService(cfg, newTestClient(t, cfg))

	balance, err := service.FetchBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 250000.0, balance.Balance)
	require.Equal(t, "CT-001", balance.AccountNumber)
}

func TestFetchBalanceFallsBackToAccountUser(t *testing.T) {
	srv := balanceServer(t, `{
		"mess": {"code": 1},
		"data": {"balance": -12000, "accountUser": "0912345678"}
	}`)
	defer srv.Close()

	cfg := testConfig{crmBaseURL: srv.URL}
	service := NewService(cfg, newTestClient(t, cfg))

	balance, err := service.FetchBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, -12000.0, balance.Balance)
	require.Equal(t, "0912345678", balance.AccountNumber)
}

func TestFetchBalanceRejectsFailureCode(t *testing.T) {
	srv := balanceServer(t, `{"mess": {"code": 405, "description": "contract not found"}}`)
	defer srv.Close()

	cfg := testConfig{crmBaseURL: srv.URL}
	service := NewService(cfg, newTestClient(t, cfg))

	_, err := service.FetchBalance(context.Background())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 405, upstream.Code)
	require.Contains(t, upstream.Error(), "contract not found")
}

func TestFetchBalanceRejectsMissingData(t *testing.T) {
	srv := balanceServer(t, `{"mess": {"code": 1}}`)
	defer srv.Close()

	cfg := testConfig{crmBaseURL: srv.URL}
	service := NewService(cfg, newTestClient(t, cfg))

	_, err := service.FetchBalance(context.Background())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Contains(t, upstream.Error(), "failed to fetch balance")
}
