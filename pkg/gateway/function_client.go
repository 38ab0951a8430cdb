package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Hosted function names.
const (
	FunctionAnalyzeOutfit = "analyze-outfit"
	FunctionSaveOutfit    = "save-outfit"
	FunctionListOutfits   = "list-outfits"
	FunctionDeleteOutfit  = "delete-outfit"
)

// ErrNotConfigured means the gateway has no endpoint to call.
var ErrNotConfigured = errors.New("gateway not configured")

// FunctionClient invokes a named hosted function with a JSON payload and
// decodes the JSON result into out.
type FunctionClient interface {
	Invoke(ctx context.Context, name string, payload any, out any) error
}

type HTTPFunctionClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var _ FunctionClient = &HTTPFunctionClient{}

func NewHTTPFunctionClient(baseURL, apiKey string) *HTTPFunctionClient {
	return &HTTPFunctionClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *HTTPFunctionClient) Invoke(ctx context.Context, name string, payload any, out any) error {
	if c.BaseURL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}

	url := c.BaseURL + "/functions/v1/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("apikey", c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("function %s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("function %s error: status %d, body: %s", name, resp.StatusCode, truncate(respBody, 512))
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return fmt.Errorf("function %s returned an empty body", name)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", name, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
