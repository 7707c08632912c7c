package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultTwilioBase  = "https://api.twilio.com"
	defaultMaxAttempts = 5
	defaultBackoff     = 200 * time.Millisecond
)

// TwilioClient sends SMS through the Twilio Messages API using a messaging service.
type TwilioClient struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	BaseURL             string
	MaxAttempts         int
	Backoff             time.Duration
	HTTPClient          *http.Client
}

// NewTwilioClient returns a client with default base URL, timeout and attempt count.
func NewTwilioClient(accountSID, authToken, messagingServiceSID, baseURL string, maxAttempts int) *TwilioClient {
	if baseURL == "" {
		baseURL = defaultTwilioBase
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &TwilioClient{
		AccountSID:          accountSID,
		AuthToken:           authToken,
		MessagingServiceSID: messagingServiceSID,
		BaseURL:             strings.TrimRight(baseURL, "/"),
		MaxAttempts:         maxAttempts,
		Backoff:             defaultBackoff,
		HTTPClient:          &http.Client{Timeout: defaultTimeout},
	}
}

type twilioMessage struct {
	SID string `json:"sid"`
}

// Send posts one message. Network errors and 5xx/429 responses are retried
// up to MaxAttempts in total; other statuses fail immediately.
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	if c.AccountSID == "" || c.AuthToken == "" {
		return "", errors.New("sms: twilio credentials not configured")
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.BaseURL, url.PathEscape(c.AccountSID))
	form := url.Values{
		"To":                  {to},
		"MessagingServiceSid": {c.MessagingServiceSID},
		"Body":                {body},
	}.Encode()

	b := retry.WithMaxRetries(uint64(max(c.MaxAttempts-1, 0)), retry.NewExponential(max(c.Backoff, time.Millisecond)))

	var sid string
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.AccountSID, c.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			err := fmt.Errorf("sms: twilio status=%d body=%s", resp.StatusCode, string(raw))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return retry.RetryableError(err)
			}
			return err
		}

		var msg twilioMessage
		if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
			return fmt.Errorf("sms: decode twilio response: %w", err)
		}
		sid = msg.SID
		return nil
	})
	if err != nil {
		return "", err
	}
	return sid, nil
}
