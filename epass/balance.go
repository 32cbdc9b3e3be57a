package epass

import (
	"context"
	"encoding/json"
	"fmt"
)

// BalanceInfo is the flattened account balance. Balance may be negative
// when the account is overdrawn.
type BalanceInfo struct {
	Balance       float64 `json:"balance"`
	AccountNumber string  `json:"accountNumber"`
}

// The operator's success sentinel for payload-level status codes.
const messCodeOK = 1

type balanceResponse struct {
	Mess struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"mess"`
	Data *struct {
		Balance     float64 `json:"balance"`
		ContractNo  string  `json:"contractNo"`
		AccountUser string  `json:"accountUser"`
	} `json:"data"`
}

// FetchBalance looks up the account balance on the CRM ocsInfo endpoint.
// The call succeeds only when the payload status equals the operator's
// success sentinel and a data section is present.
func (s *Service) FetchBalance(ctx context.Context) (*BalanceInfo, error) {
	endpoint := fmt.Sprintf("%s/customers/%s/contracts/%s/ocsInfo",
		s.cfg.GetEpassCrmBaseURL(), s.cfg.GetEpassCustomerID(), s.cfg.GetEpassContractID())

	body, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode balance response: %w", err)
	}

	if resp.Mess.Code != messCodeOK || resp.Data == nil {
		description := resp.Mess.Description
		if description == "" {
			description = "failed to fetch balance"
		}
		return nil, &UpstreamError{Code: resp.Mess.Code, Description: description}
	}

	accountNumber := resp.Data.ContractNo
	if accountNumber == "" {
		accountNumber = resp.Data.AccountUser
	}
	return &BalanceInfo{
		Balance:       resp.Data.Balance,
		AccountNumber: accountNumber,
	}, nil
}
