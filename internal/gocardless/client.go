// Package gocardless is a thin wrapper over the GoCardless Bank Account Data
// API (PSD2 aggregator): institution discovery, end-user agreements,
// requisitions, and per-account details, balances and booked transactions.
package gocardless

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrAuthFailed covers a bad or expired access token. Fatal to the
	// current operation; the operator owns token renewal.
	ErrAuthFailed = errors.New("aggregator authentication failed")
	// ErrRateLimited is propagated as-is, never retried here.
	ErrRateLimited = errors.New("aggregator rate limit exceeded")
)

const accessValidForDays = 90

type Client struct {
	baseURL     string
	accessToken string
	redirectURL string
	language    string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken, redirectURL, language string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		redirectURL: redirectURL,
		language:    language,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ListInstitutions(ctx context.Context, countryCode string) ([]Institution, error) {
	var institutions []Institution
	path := "/institutions/?country=" + url.QueryEscape(countryCode)
	if err := c.get(ctx, path, &institutions); err != nil {
		return nil, err
	}
	return institutions, nil
}

// CreateConsentAndLink creates a time-boxed end-user agreement, then a
// requisition tied to it, and returns the institution's authorization link
// together with the requisition id to poll.
func (c *Client) CreateConsentAndLink(ctx context.Context, institutionID string, maxHistoricalDays int) (ConsentLink, error) {
	var agreement Agreement
	err := c.post(ctx, "/agreements/enduser/", map[string]any{
		"institution_id":        institutionID,
		"max_historical_days":   maxHistoricalDays,
		"access_valid_for_days": accessValidForDays,
		"access_scope":          []string{"balances", "details", "transactions"},
	}, &agreement)
	if err != nil {
		return ConsentLink{}, fmt.Errorf("create agreement: %w", err)
	}

	var requisition Requisition
	err = c.post(ctx, "/requisitions/", map[string]any{
		"redirect":       c.redirectURL,
		"institution_id": institutionID,
		"agreement":      agreement.ID,
		"user_language":  c.language,
	}, &requisition)
	if err != nil {
		return ConsentLink{}, fmt.Errorf("create requisition: %w", err)
	}

	return ConsentLink{
		AuthorizationLink:  requisition.Link,
		RequisitionID:      requisition.ID,
		AgreementID:        agreement.ID,
		AccessValidForDays: accessValidForDays,
	}, nil
}

func (c *Client) GetRequisition(ctx context.Context, requisitionID string) (Requisition, error) {
	var requisition Requisition
	if err := c.get(ctx, "/requisitions/"+url.PathEscape(requisitionID)+"/", &requisition); err != nil {
		return Requisition{}, err
	}
	return requisition, nil
}

func (c *Client) GetAccountDetails(ctx context.Context, accountID string) (AccountDetails, error) {
	var payload struct {
		Account AccountDetails `json:"account"`
	}
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/details/", &payload); err != nil {
		return AccountDetails{}, err
	}
	return payload.Account, nil
}

func (c *Client) GetAccountBalances(ctx context.Context, accountID string) (Balances, error) {
	var payload struct {
		Balances Balances `json:"balances"`
	}
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/balances/", &payload); err != nil {
		return nil, err
	}
	return payload.Balances, nil
}

// GetAccountTransactions returns booked transactions only; pending entries
// have no stable id and are ignored.
func (c *Client) GetAccountTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	var payload struct {
		Transactions struct {
			Booked []Transaction `json:"booked"`
		} `json:"transactions"`
	}
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/transactions/", &payload); err != nil {
		return nil, err
	}
	return payload.Transactions.Booked, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aggregator request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthFailed
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("aggregator returned %d: %s", resp.StatusCode, snippet)
	}

	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
