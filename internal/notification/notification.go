/*
Copyright 2025 ATMConnect Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DeliveryResult reports the outcome of handing a message to the delivery
// channel. A failed delivery never invalidates the transaction it refers to;
// the confirmation window runs regardless.
type DeliveryResult struct {
	Delivered   bool      `json:"delivered"`
	Channel     string    `json:"channel"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Notifier is the out-of-band delivery contract: OTPs, transaction
// confirmations and security alerts go to the customer through it.
type Notifier interface {
	SendOtp(ctx context.Context, destination, otp, transactionRef string) (DeliveryResult, error)
	SendTransactionConfirmation(ctx context.Context, destination string, details map[string]interface{}) (DeliveryResult, error)
	SendSecurityAlert(ctx context.Context, destination, message string) (DeliveryResult, error)
}

// WebhookNotifier posts notification payloads to a configured webhook, which
// fans them out to SMS/email/push providers downstream.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) post(ctx context.Context, kind string, payload map[string]interface{}) (DeliveryResult, error) {
	result := DeliveryResult{Channel: "webhook", AttemptedAt: time.Now()}
	if n.url == "" {
		result.Error = "no notification webhook configured"
		return result, nil
	}
	payload["kind"] = kind
	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Error(err)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("delivery endpoint returned %d", resp.StatusCode)
		return result, fmt.Errorf("notification delivery failed with status %d", resp.StatusCode)
	}
	result.Delivered = true
	return result, nil
}

func (n *WebhookNotifier) SendOtp(ctx context.Context, destination, otp, transactionRef string) (DeliveryResult, error) {
	return n.post(ctx, "otp", map[string]interface{}{
		"destination": destination,
		"otp":         otp,
		"reference":   transactionRef,
	})
}

func (n *WebhookNotifier) SendTransactionConfirmation(ctx context.Context, destination string, details map[string]interface{}) (DeliveryResult, error) {
	return n.post(ctx, "transaction_confirmation", map[string]interface{}{
		"destination": destination,
		"details":     details,
	})
}

func (n *WebhookNotifier) SendSecurityAlert(ctx context.Context, destination, message string) (DeliveryResult, error) {
	return n.post(ctx, "security_alert", map[string]interface{}{
		"destination": destination,
		"message":     message,
	})
}

// NotifyError logs a system error and, asynchronously, pushes it to the
// configured alert sink. Completion is irrelevant to the caller.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)
	}(systemError)
}
