package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// XClient posts approval announcements to the X API.
type XClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

// NewXClient constructs a new client. An empty token disables posting.
func NewXClient(baseURL, bearerToken string) *XClient {
	return &XClient{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether a token is configured.
func (c *XClient) Enabled() bool {
	return c != nil && c.bearerToken != ""
}

// Post publishes one tweet-sized message.
func (c *XClient) Post(ctx context.Context, text string) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/2/tweets", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("x api returned status %d", resp.StatusCode)
	}
	return nil
}
