package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rumormill/internal/config"
)

const userAgent = "RumourMill-Go/0.1.0"

// Event identifies a notification category.
type Event string

// Events published by the daemon.
const (
	EventDaemonStarted   Event = "daemon_started"
	EventRumorPrinted    Event = "rumor_printed"
	EventFallbackPrinted Event = "fallback_printed"
	EventStorageDegraded Event = "storage_degraded"
	EventError           Event = "error"
	EventTest            Event = "test"
)

// Payload carries the event fields used to format messages.
type Payload map[string]string

// Service defines the notification surface exposed to daemon components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		printEvents: cfg.Notifications.Prints,
		errorEvents: cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	printEvents bool
	errorEvents bool
}

// Publish formats and sends the event. Suppressed and unknown events return
// nil without a request.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	data, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	get := func(key string) string {
		return strings.TrimSpace(payload[key])
	}

	switch event {
	case EventDaemonStarted:
		body := "Mill is up"
		if address := get("address"); address != "" {
			body = fmt.Sprintf("Mill is up at %s", address)
		}
		return message{
			title: "Rumour Mill - Started",
			body:  body,
			tags:  []string{"rumormill", "daemon", "started"},
		}, true
	case EventRumorPrinted:
		if !n.printEvents {
			return message{}, false
		}
		body := fmt.Sprintf("Printed: %s", get("title"))
		if source := get("source"); source != "" {
			body = fmt.Sprintf("%s (%s trigger)", body, source)
		}
		return message{
			title: "Rumour Mill - Printed",
			body:  body,
			tags:  []string{"rumormill", "print", "completed"},
		}, true
	case EventFallbackPrinted:
		if !n.printEvents {
			return message{}, false
		}
		body := "Fallback slip printed"
		if reason := get("reason"); reason != "" {
			body = fmt.Sprintf("%s: %s", body, reason)
		}
		return message{
			title: "Rumour Mill - Nothing To Print",
			body:  body,
			tags:  []string{"rumormill", "print", "fallback"},
		}, true
	case EventStorageDegraded:
		if !n.errorEvents {
			return message{}, false
		}
		errText := get("error")
		if errText == "" {
			errText = "unknown"
		}
		return message{
			title:    "Rumour Mill - Storage Degraded",
			body:     fmt.Sprintf("Rumor snapshot save failed: %s", errText),
			tags:     []string{"rumormill", "storage", "alert"},
			priority: "high",
		}, true
	case EventError:
		if !n.errorEvents {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("Error")
		if label := get("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := get("error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Rumour Mill - Error",
			body:     builder.String(),
			tags:     []string{"rumormill", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Rumour Mill - Test",
			body:     "Notification system test",
			tags:     []string{"rumormill", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
