package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"harambee/internal/logger"
)

// Sender delivers a rendered message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type smsRequest struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
}

// GatewaySender posts messages to an HTTP SMS gateway.
type GatewaySender struct {
	url      string
	apiKey   string
	senderID string
	client   *http.Client
}

// NewGatewaySender creates a sender for the gateway at url.
func NewGatewaySender(url, apiKey, senderID string) *GatewaySender {
	return &GatewaySender{
		url:      url,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GatewaySender) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(smsRequest{To: phone, Message: message, SenderID: s.senderID})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// gateway is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phone, message string) error {
	logger.Get().Infow("sms (log sender)", "phone", phone, "message", message)
	return nil
}
