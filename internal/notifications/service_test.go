package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"rumormill/internal/config"
	"rumormill/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRumorPrinted, notifications.Payload{"title": "Mirror ball"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "daemon started",
			event: notifications.EventDaemonStarted,
			payload: notifications.Payload{
				"address": "http://192.168.4.1:8080",
			},
			expectTitle:   "Rumour Mill - Started",
			expectMessage: "Mill is up at http://192.168.4.1:8080",
			expectTags:    "rumormill,daemon,started",
		},
		{
			name:  "rumor printed",
			event: notifications.EventRumorPrinted,
			payload: notifications.Payload{
				"title":  "The mayor's parrot",
				"source": "reed",
			},
			expectTitle:   "Rumour Mill - Printed",
			expectMessage: "Printed: The mayor's parrot (reed trigger)",
			expectTags:    "rumormill,print,completed",
		},
		{
			name:  "fallback printed",
			event: notifications.EventFallbackPrinted,
			payload: notifications.Payload{
				"reason": "no eligible rumors",
			},
			expectTitle:   "Rumour Mill - Nothing To Print",
			expectMessage: "Fallback slip printed: no eligible rumors",
			expectTags:    "rumormill,print,fallback",
		},
		{
			name:  "storage degraded",
			event: notifications.EventStorageDegraded,
			payload: notifications.Payload{
				"error": "write rumors.json: no space left on device",
			},
			expectTitle:    "Rumour Mill - Storage Degraded",
			expectMessage:  "Rumor snapshot save failed: write rumors.json: no space left on device",
			expectTags:     "rumormill,storage,alert",
			expectPriority: "high",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "dispatch",
				"error":   "printer offline",
			},
			expectTitle:    "Rumour Mill - Error",
			expectMessage:  "Error with dispatch: printer offline",
			expectTags:     "rumormill,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "Rumour Mill - Test",
			expectMessage:  "Notification system test",
			expectTags:     "rumormill,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSuppressesDisabledCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Prints = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	suppressed := []notifications.Event{
		notifications.EventRumorPrinted,
		notifications.EventFallbackPrinted,
		notifications.EventStorageDegraded,
		notifications.EventError,
		notifications.Event("unknown_event"),
	}

	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
