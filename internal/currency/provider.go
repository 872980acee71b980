// Package currency converts transaction amounts into the home currency using
// cached daily exchange rates.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider fetches the exchange rate from base to quote valid on the
// given day.
type RateProvider interface {
	FetchRate(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error)
}

// HTTPProvider talks to a frankfurter-style rate API:
// GET {base_url}/{YYYY-MM-DD}?from=EUR&to=CHF.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider against the given base URL with a
// request timeout.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FetchRate implements RateProvider.
func (p *HTTPProvider) FetchRate(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/%s?from=%s&to=%s",
		p.baseURL, date.Format("2006-01-02"), url.QueryEscape(base), url.QueryEscape(quote))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	rate, ok := body.Rates[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate provider returned no rate for %s", quote)
	}
	return decimal.NewFromFloat(rate), nil
}
