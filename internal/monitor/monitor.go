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

package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Severity buckets for recorded security events.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Well-known event types emitted by the authorization core.
const (
	EventAuthFailure     = "authentication.failure"
	EventAccountLocked   = "account.locked"
	EventWeakCredential  = "credential.weak"
	EventIntegrityFailed = "transaction.integrity_failed"
	EventInvalidOtp      = "transaction.invalid_otp"
)

// SecurityEvent is a recorded anomaly handed to the external monitoring
// system. Rate limiting and alerting on top of these is the monitor's
// business, not the core's.
type SecurityEvent struct {
	EventType  string                 `json:"event_type"`
	Severity   string                 `json:"severity"`
	Source     string                 `json:"source"`
	Details    map[string]interface{} `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// SecurityMonitor is the produced-to contract: the core records, the external
// collaborator decides what to do about it.
type SecurityMonitor interface {
	RecordAuthenticationFailure(ctx context.Context, source, identity, reason string) error
	RecordSecurityEvent(ctx context.Context, event SecurityEvent) error
}

// LogMonitor writes security events to the structured log. It is the fallback
// sink when no delivery queue is configured, and the monitor used in tests.
type LogMonitor struct{}

func NewLogMonitor() *LogMonitor {
	return &LogMonitor{}
}

func (m *LogMonitor) RecordAuthenticationFailure(_ context.Context, source, identity, reason string) error {
	logrus.WithFields(logrus.Fields{
		"source":   source,
		"identity": identity,
		"reason":   reason,
	}).Warn("authentication failure")
	return nil
}

func (m *LogMonitor) RecordSecurityEvent(_ context.Context, event SecurityEvent) error {
	logrus.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"severity":   event.Severity,
		"source":     event.Source,
		"details":    event.Details,
	}).Warn("security event")
	return nil
}

// NewEvent builds a SecurityEvent stamped with the current time.
func NewEvent(eventType, severity, source string, details map[string]interface{}) SecurityEvent {
	return SecurityEvent{
		EventType:  eventType,
		Severity:   severity,
		Source:     source,
		Details:    details,
		OccurredAt: time.Now(),
	}
}
