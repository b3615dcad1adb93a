// Package bank talks to the payment gateway that executes outbound
// SEPA transfers for returns and redemption payouts.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// Client is an HTTP client for the bank gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bank gateway client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transferRequest struct {
	Reference       string `json:"reference"`
	BeneficiaryIBAN string `json:"beneficiary_iban"`
	BeneficiaryName string `json:"beneficiary_name"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
}

// SendTransfer submits an outbound transfer. The reference makes the
// call idempotent on the gateway side: re-submitting the same
// reference is accepted and does not move money twice.
func (c *Client) SendTransfer(ctx context.Context, transfer domain.OutboundTransfer) error {
	payload, err := json.Marshal(transferRequest{
		Reference:       transfer.Reference,
		BeneficiaryIBAN: transfer.BeneficiaryIBAN,
		BeneficiaryName: transfer.BeneficiaryName,
		Amount:          transfer.Amount.String(),
		Currency:        transfer.Currency,
		Description:     transfer.Description,
	})
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 409 means the gateway already holds this reference.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("bank gateway returned status %d", resp.StatusCode)
	}
	return nil
}
