package epass

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// testConfig satisfies config.EpassConfig with endpoints pointed at test
// servers.
type testConfig struct {
	baseURL    string
	crmBaseURL string
	tokenURL   string
}

func (c testConfig) GetEpassBaseURL() string      { return c.baseURL }
func (c testConfig) GetEpassCrmBaseURL() string   { return c.crmBaseURL }
func (c testConfig) GetEpassTokenURL() string     { return c.tokenURL }
func (c testConfig) GetEpassClientID() string     { return "test-client" }
func (c testConfig) GetEpassCustomerID() string   { return "111" }
func (c testConfig) GetEpassContractID() string   { return "222" }
func (c testConfig) GetEpassToken() string        { return "" }
func (c testConfig) GetEpassRefreshToken() string { return "" }
func (c testConfig) GetEpassUsername() string     { return "" }
func (c testConfig) GetEpassPassword() string     { return "" }

// signedToken mints an HS256 token whose exp claim is readable by the
// manager's unverified parse.
func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}
