package config

// EpassConfig exposes everything needed to talk to the ePass operator
// backend: fixed API endpoints, the public OAuth client and the account
// identifiers, plus the environment-provided token/credential fallbacks.
type EpassConfig interface {
	GetEpassBaseURL() string
	GetEpassCrmBaseURL() string
	GetEpassTokenURL() string
	GetEpassClientID() string
	GetEpassCustomerID() string
	GetEpassContractID() string
	GetEpassToken() string
	GetEpassRefreshToken() string
	GetEpassUsername() string
	GetEpassPassword() string
}

type Epass struct{}

var _ EpassConfig = Epass{}

func (Epass) GetEpassBaseURL() string {
	return GetEnv("EPASS_BASE_URL", "https://backend.epass-vdtc.com.vn/doisoat2/api/v1")
}

func (Epass) GetEpassCrmBaseURL() string {
	return GetEnv("EPASS_CRM_BASE_URL", "https://backend.epass-vdtc.com.vn/crm2/api/v1")
}

func (Epass) GetEpassTokenURL() string {
	return GetEnv("EPASS_TOKEN_URL", "https://login.epass-vdtc.com.vn/auth/realms/etc-internal/protocol/openid-connect/token")
}

func (Epass) GetEpassClientID() string {
	return GetEnv("EPASS_CLIENT_ID", "mobile-app-chupt")
}

func (Epass) GetEpassCustomerID() string {
	return GetEnv("EPASS_CUSTOMER_ID", "1560176")
}

func (Epass) GetEpassContractID() string {
	return GetEnv("EPASS_CONTRACT_ID", "1945130")
}

func (Epass) GetEpassToken() string {
	return GetEnv("EPASS_TOKEN", "")
}

func (Epass) GetEpassRefreshToken() string {
	return GetEnv("EPASS_REFRESH_TOKEN", "")
}

func (Epass) GetEpassUsername() string {
	return GetEnv("EPASS_USERNAME", "")
}

func (Epass) GetEpassPassword() string {
	return GetEnv("EPASS_PASSWORD", "")
}
