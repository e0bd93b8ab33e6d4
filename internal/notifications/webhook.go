package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/quantdata/internal/httputil"
	"github.com/kjannette/quantdata/internal/logging"
)

const defaultName = "quantdata"

// Sender posts short status messages to a Slack or Discord webhook. With no
// webhook configured messages are only logged.
type Sender struct {
	webhookURL string
	name       string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     *logging.Logger
}

func NewSender(webhookURL, name string, logger *logging.Logger) *Sender {
	if name == "" {
		name = defaultName
	}
	logger = logger.Component("notify")
	return &Sender{
		webhookURL: webhookURL,
		name:       name,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

func (s *Sender) Send(ctx context.Context, msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.name, msg)
	s.logger.Info().Msg(msg)

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal webhook payload")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to send notification after retries")
		return
	}
	resp.Body.Close()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.name,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.name,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
