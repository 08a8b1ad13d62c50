package assist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opscore/internal/config"
	"opscore/pkg/domain"
)

func TestCompleteRoundTrip(t *testing.T) {
	var gotAuth, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(map[string]string{"completion": "call them tomorrow"})
	}))
	defer server.Close()

	client := New(config.Assistant{Endpoint: server.URL, APIKey: "secret", Timeout: time.Second})
	reply, err := client.Complete(context.Background(), "next step?")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "call them tomorrow" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if gotPrompt != "next step?" {
		t.Fatalf("unexpected prompt %q", gotPrompt)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
}

func TestCompleteFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
		{"empty completion", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"completion": "  "})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client := New(config.Assistant{Endpoint: server.URL})
			_, err := client.Complete(context.Background(), "prompt")
			var ext domain.ExternalServiceError
			if !errors.As(err, &ext) {
				t.Fatalf("expected external service error, got %v", err)
			}
			if ext.Service != "assistant" {
				t.Fatalf("expected assistant service, got %q", ext.Service)
			}
		})
	}
}

func TestCompleteWithoutEndpoint(t *testing.T) {
	client := New(config.Assistant{})
	_, err := client.Complete(context.Background(), "prompt")
	var ext domain.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	client := New(config.Assistant{Endpoint: "http://localhost:0"})
	_, err := client.Complete(context.Background(), "   ")
	var ext domain.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error, got %v", err)
	}
}
