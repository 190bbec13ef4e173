package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

// Client calls a Solana JSON-RPC endpoint. It covers only the read surface
// this service needs: fetching raw account data by address.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// AccountInfo is one fetched account. Data is the raw account bytes.
type AccountInfo struct {
	Lamports uint64
	Owner    string
	Data     []byte
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcAccountValue struct {
	Lamports uint64   `json:"lamports"`
	Owner    string   `json:"owner"`
	Data     []string `json:"data"`
}

type rpcMultipleAccountsResponse struct {
	Result struct {
		Value []*rpcAccountValue `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// GetMultipleAccounts fetches the accounts at the given addresses in one
// call. Missing accounts come back as nil entries, preserving order.
func (c *Client) GetMultipleAccounts(ctx context.Context, addrs []PublicKey) ([]*AccountInfo, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	encoded := make([]string, 0, len(addrs))
	for _, a := range addrs {
		encoded = append(encoded, a.String())
	}
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getMultipleAccounts",
		Params: []any{
			encoded,
			map[string]string{"encoding": "base64", "commitment": "confirmed"},
		},
	}

	var out rpcMultipleAccountsResponse
	if err := c.do(ctx, payload, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if len(out.Result.Value) != len(addrs) {
		return nil, fmt.Errorf("rpc returned %d accounts, want %d", len(out.Result.Value), len(addrs))
	}

	accounts := make([]*AccountInfo, len(addrs))
	for i, v := range out.Result.Value {
		if v == nil {
			continue
		}
		if len(v.Data) < 1 {
			return nil, errors.New("rpc account missing data field")
		}
		raw, err := base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
		accounts[i] = &AccountInfo{
			Lamports: v.Lamports,
			Owner:    v.Owner,
			Data:     raw,
		}
	}
	return accounts, nil
}

func (c *Client) do(ctx context.Context, payload rpcRequest, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("rpc status %d: %s", resp.StatusCode, string(snippet))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
