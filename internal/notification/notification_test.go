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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierSendOtp(t *testing.T) {
	var captured map[string]interface{}
	var capturedHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeader = r.Header.Get("X-Test-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, map[string]string{"X-Test-Key": "secret"})
	result, err := notifier.SendOtp(context.Background(), "cus_1", "123456", "REF202501010000")

	assert.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Equal(t, "webhook", result.Channel)
	assert.Equal(t, "secret", capturedHeader)
	assert.Equal(t, "otp", captured["kind"])
	assert.Equal(t, "123456", captured["otp"])
	assert.Equal(t, "REF202501010000", captured["reference"])
}

func TestWebhookNotifierEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil)
	result, err := notifier.SendSecurityAlert(context.Background(), "cus_1", "account locked")

	assert.Error(t, err)
	assert.False(t, result.Delivered)
	assert.Contains(t, result.Error, "502")
}

func TestWebhookNotifierNoURL(t *testing.T) {
	notifier := NewWebhookNotifier("", nil)
	result, err := notifier.SendTransactionConfirmation(context.Background(), "cus_1", map[string]interface{}{
		"reference": "REF202501010000",
	})

	// Missing configuration is reported, not treated as a delivery failure.
	assert.NoError(t, err)
	assert.False(t, result.Delivered)
	assert.NotEmpty(t, result.Error)
}
