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

package atmconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ArcInTower/atmconnect/config"
	"github.com/ArcInTower/atmconnect/internal/monitor"
	"github.com/ArcInTower/atmconnect/internal/notification"
)

const (
	SECURITY_EVENT_QUEUE = "atmconnect_security_events"
	NOTIFICATION_QUEUE   = "atmconnect_notifications"
)

// NotificationMessage is the payload handed to the delivery webhook, which
// fans out to SMS/email/push downstream. Delivery outcome never feeds back
// into the authorization decision.
type NotificationMessage struct {
	Kind        string                 `json:"kind"`
	Destination string                 `json:"destination"`
	Payload     map[string]interface{} `json:"payload"`
}

// Queue wraps the asynq client used to hand security events and customer
// notifications off for asynchronous delivery.
type Queue struct {
	client *asynq.Client
}

func NewQueue(conf *config.Configuration) *Queue {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: conf.Redis.Dns})
	return &Queue{client: client}
}

func (q *Queue) enqueue(queueName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(queueName, data, asynq.Queue(queueName))
	if _, err := q.client.Enqueue(task); err != nil {
		logrus.Errorf("failed to enqueue %s task: %v", queueName, err)
		return err
	}
	return nil
}

func (q *Queue) queueSecurityEvent(event monitor.SecurityEvent) error {
	return q.enqueue(SECURITY_EVENT_QUEUE, event)
}

func (q *Queue) queueNotification(message NotificationMessage) error {
	return q.enqueue(NOTIFICATION_QUEUE, message)
}

// QueueMonitor satisfies the security-monitor contract by queueing events for
// the external monitoring system. Rate limiting and alerting live on the
// other side of the webhook.
type QueueMonitor struct {
	queue *Queue
}

func NewQueueMonitor(queue *Queue) *QueueMonitor {
	return &QueueMonitor{queue: queue}
}

func (m *QueueMonitor) RecordAuthenticationFailure(_ context.Context, source, identity, reason string) error {
	return m.queue.queueSecurityEvent(monitor.NewEvent(monitor.EventAuthFailure, monitor.SeverityWarning, source,
		map[string]interface{}{"identity": identity, "reason": reason}))
}

func (m *QueueMonitor) RecordSecurityEvent(_ context.Context, event monitor.SecurityEvent) error {
	return m.queue.queueSecurityEvent(event)
}

func deliverJSON(url string, headers map[string]string, body []byte) error {
	if url == "" {
		return nil
	}
	operation := func() error {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errResponseStatus(resp.StatusCode)
		}
		return nil
	}
	return backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4))
}

type errResponseStatus int

func (e errResponseStatus) Error() string {
	return http.StatusText(int(e))
}

// ProcessSecurityEvent delivers a queued security event to the monitoring
// webhook. Runs inside the worker process.
func ProcessSecurityEvent(_ context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Monitor.WebhookUrl == "" {
		return nil
	}
	return deliverJSON(conf.Monitor.WebhookUrl, conf.Monitor.Headers, task.Payload())
}

// ProcessNotification delivers a queued customer notification through the
// configured notifier. Failures are retried by the queue but never invalidate
// the transaction they refer to.
func ProcessNotification(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.WebhookUrl == "" {
		return nil
	}
	var message NotificationMessage
	if err := json.Unmarshal(task.Payload(), &message); err != nil {
		return err
	}
	notifier := notification.NewWebhookNotifier(conf.Notification.WebhookUrl, conf.Notification.Headers)
	result, err := dispatchNotification(ctx, notifier, message)
	if err != nil {
		return err
	}
	if !result.Delivered {
		logrus.Warnf("notification %s not delivered: %s", message.Kind, result.Error)
	}
	return nil
}

func dispatchNotification(ctx context.Context, notifier notification.Notifier, message NotificationMessage) (notification.DeliveryResult, error) {
	switch message.Kind {
	case "otp", "auth_challenge":
		otp, _ := message.Payload["otp"].(string)
		reference, _ := message.Payload["reference"].(string)
		return notifier.SendOtp(ctx, message.Destination, otp, reference)
	case "security_alert":
		alert, _ := message.Payload["message"].(string)
		return notifier.SendSecurityAlert(ctx, message.Destination, alert)
	default:
		return notifier.SendTransactionConfirmation(ctx, message.Destination, message.Payload)
	}
}
