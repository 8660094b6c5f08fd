// internal/enrich/translate.go
package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Translator translates free text through an external machine-translation
// API. A fixed delay after each call keeps the client under the upstream
// rate limit.
type Translator struct {
	Endpoint string
	Client   *http.Client
	Delay    time.Duration
	logger   *slog.Logger
}

// NewTranslator creates a new Translator.
func NewTranslator(endpoint string, delay time.Duration, logger *slog.Logger) *Translator {
	return &Translator{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Delay:    delay,
		logger:   logger,
	}
}

// Translate returns the translated text, or the original text unchanged on
// any failure or timeout.
func (t *Translator) Translate(ctx context.Context, text string) string {
	if text == "" {
		return text
	}

	form := url.Values{
		"q":    {text},
		"from": {"auto"},
		"to":   {"zh-CHS"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.logger.Warn("Error building translation request", "error", err)
		return text
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.Client.Do(req)
	if err != nil {
		t.logger.Warn("Error translating message", "error", err)
		return text
	}
	defer resp.Body.Close()
	defer t.pause(ctx)

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("Translation request failed", "status", resp.Status)
		return text
	}

	var payload struct {
		Translation []string `json:"translation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.logger.Warn("Failed to decode translation response", "error", err)
		return text
	}
	if len(payload.Translation) == 0 {
		return text
	}
	return strings.Join(payload.Translation, "\n")
}

// pause waits out the inter-call delay, honoring context cancellation.
func (t *Translator) pause(ctx context.Context) {
	if t.Delay <= 0 {
		return
	}
	select {
	case <-time.After(t.Delay):
	case <-ctx.Done():
	}
}
