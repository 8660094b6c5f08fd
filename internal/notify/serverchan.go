// internal/notify/serverchan.go
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ServerChan pushes notifications through the ServerChan turbo API.
type ServerChan struct {
	Key     string
	BaseURL string
	Client  *http.Client
}

// NewServerChan creates a new ServerChan push client.
func NewServerChan(key string) *ServerChan {
	return &ServerChan{
		Key:     key,
		BaseURL: "https://sctapi.ftqq.com",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one message. Missing credentials and upstream failures are
// returned as errors for the caller to log; they are never fatal.
func (s *ServerChan) Send(ctx context.Context, title, body, tags string) error {
	if s.Key == "" {
		return fmt.Errorf("serverchan key is not configured")
	}

	form := url.Values{
		"title": {title},
		"desp":  {body},
	}
	if tags != "" {
		form.Set("tags", tags)
	}

	endpoint := fmt.Sprintf("%s/%s.send", strings.TrimRight(s.BaseURL, "/"), s.Key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push notification failed with status: %s", resp.Status)
	}
	return nil
}
