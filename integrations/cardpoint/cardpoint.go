// Package cardpoint is a minimal client for the parts of the Cardpoint API
// the webhook pipeline needs: the balance transaction lookup that carries
// authoritative fee data for a completed checkout.
package cardpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AlmonerProjects/almoner/sudoapi/flags"
)

type Client struct {
	apiBase string
	apiKey  string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		apiBase: flags.CardpointAPIBase.Value(),
		apiKey:  flags.CardpointAPIKey.Value(),
		client:  &http.Client{},
	}
}

type BalanceTransaction struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Fee    int64  `json:"fee"`
	Net    int64  `json:"net"`
}

// BalanceTransaction fetches fee data for a payment. Callers are expected to
// bound the call with a context timeout and treat failure as "no enriched
// fee data", never as a reason to reject the event.
func (c *Client) BalanceTransaction(ctx context.Context, paymentID string) (*BalanceTransaction, error) {
	url := fmt.Sprintf("%s/payments/%s/balance_transaction", c.apiBase, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cardpoint returned status %d", resp.StatusCode)
	}

	var bt BalanceTransaction
	if err := json.NewDecoder(resp.Body).Decode(&bt); err != nil {
		return nil, fmt.Errorf("couldn't decode balance transaction: %w", err)
	}
	return &bt, nil
}

// FeeTimeout is the bound on a single balance transaction lookup.
func FeeTimeout() time.Duration {
	return time.Duration(flags.CardpointFeeTimeoutMS.Value()) * time.Millisecond
}
