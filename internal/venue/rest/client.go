package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client speaks the venue's read-only /info endpoint: market listing,
// account lookup, and transaction confirmation status.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type InfoRequest struct {
	Type      string `json:"type"`
	User      string `json:"user,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Confirmation is the network's view of a submitted transaction. Err
// carries the on-chain failure for transactions that landed but were
// rejected during execution.
type Confirmation struct {
	Confirmed bool
	Err       string
}

func (c *Client) Info(ctx context.Context, req interface{}) (map[string]any, error) {
	return c.post(ctx, "/info", req)
}

func (c *Client) InfoAny(ctx context.Context, req interface{}) (any, error) {
	return c.postAny(ctx, "/info", req)
}

// AccountExists reports whether a trading account is present at the
// derived address. Absence is a normal precondition-not-met state, not
// an error.
func (c *Client) AccountExists(ctx context.Context, account string) (bool, error) {
	if account == "" {
		return false, errors.New("account address is required")
	}
	resp, err := c.Info(ctx, InfoRequest{Type: "userAccount", User: account})
	if err != nil {
		return false, err
	}
	exists, ok := resp["exists"].(bool)
	if !ok {
		return false, errors.New("malformed userAccount response")
	}
	return exists, nil
}

// TxStatus fetches the confirmation state of a submitted transaction.
func (c *Client) TxStatus(ctx context.Context, signature string) (Confirmation, error) {
	if signature == "" {
		return Confirmation{}, errors.New("transaction signature is required")
	}
	resp, err := c.Info(ctx, InfoRequest{Type: "txStatus", Signature: signature})
	if err != nil {
		return Confirmation{}, err
	}
	out := Confirmation{}
	if confirmed, ok := resp["confirmed"].(bool); ok {
		out.Confirmed = confirmed
	}
	if msg, ok := resp["error"].(string); ok {
		out.Err = msg
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, req interface{}) (map[string]any, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) postAny(ctx context.Context, path string, req interface{}) (any, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}
