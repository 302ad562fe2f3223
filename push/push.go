// Package push sends multicast notifications to donor devices through the
// configured push relay backend.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/internal/config"
)

// The relay accepts at most this many tokens per request.
const batchSize = 500

var _ almoner.Pusher = &pusher{}

type pusher struct {
	endpoint string
	key      string
	client   *http.Client
}

func NewPusher() (almoner.Pusher, error) {
	if config.Push.Endpoint == "" {
		return nil, errors.New("push endpoint not configured")
	}
	return &pusher{
		endpoint: config.Push.Endpoint,
		key:      config.Push.Key,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type sendRequest struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

type sendResponse struct {
	Results []struct {
		Token string `json:"token"`
		Error string `json:"error"`
	} `json:"results"`
}

// Send multicasts one message to all given tokens, batching as the backend
// requires. Partial failure is normal: individual token results are folded
// into the returned PushResult, with permanently invalid tokens listed
// separately so callers can prune them.
func (p *pusher) Send(ctx context.Context, tokens []string, msg *almoner.PushMessage) (*almoner.PushResult, error) {
	ctx, span := otel.Tracer("push").Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.Int("tokens", len(tokens)))

	var mu sync.Mutex
	res := &almoner.PushResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for batch := range chunkTokens(tokens, batchSize) {
		g.Go(func() error {
			batchRes, err := p.sendBatch(ctx, batch, msg)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			res.SuccessCount += batchRes.SuccessCount
			res.FailureCount += batchRes.FailureCount
			res.InvalidTokens = append(res.InvalidTokens, batchRes.InvalidTokens...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *pusher) sendBatch(ctx context.Context, tokens []string, msg *almoner.PushMessage) (*almoner.PushResult, error) {
	payload, err := json.Marshal(sendRequest{Tokens: tokens, Title: msg.Title, Body: msg.Body, Data: msg.Data})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.key)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push backend returned status %d", resp.StatusCode)
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("couldn't decode push backend response: %w", err)
	}

	res := &almoner.PushResult{}
	for _, r := range body.Results {
		if r.Error == "" {
			res.SuccessCount++
			continue
		}
		res.FailureCount++
		if permanentTokenError(r.Error) {
			res.InvalidTokens = append(res.InvalidTokens, r.Token)
		}
	}
	return res, nil
}

// permanentTokenError reports whether the backend's per-token error code
// means the token will never work again, as opposed to a transient delivery
// failure.
func permanentTokenError(code string) bool {
	switch code {
	case "unregistered", "invalid_token", "not_registered":
		return true
	default:
		return false
	}
}

func chunkTokens(tokens []string, size int) func(yield func([]string) bool) {
	return func(yield func([]string) bool) {
		for start := 0; start < len(tokens); start += size {
			end := min(start+size, len(tokens))
			if !yield(tokens[start:end]) {
				return
			}
		}
	}
}
