// Package registry talks to the fund onboarding service, the source of
// truth for member identity and onboarding state.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// Client is an HTTP client for the member registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a registry client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	PersonalCode string `json:"personal_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Onboarded    bool   `json:"onboarded"`
}

// GetByPersonalCode looks a member up by Estonian personal code. A
// missing member maps to domain.ErrUserNotFound; transport failures
// are returned as-is so callers can tell an outage from an unknown
// code.
func (c *Client) GetByPersonalCode(ctx context.Context, personalCode string) (*domain.UserDetails, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, url.PathEscape(personalCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrUserNotFound
	default:
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	return &domain.UserDetails{
		PersonalCode: body.PersonalCode,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		Onboarded:    body.Onboarded,
	}, nil
}
