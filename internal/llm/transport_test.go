package llm

import (
	"net/http"
	"testing"
	"time"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := newProxyFunc("http://proxy.local:3128", "http://secure.local:3129")

	tests := []struct {
		target string
		want   string
	}{
		{"http://localhost:11434/api/generate", "http://proxy.local:3128"},
		{"https://api.anthropic.com/v1/messages", "http://secure.local:3129"},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, tt.target, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got.String() != tt.want {
			t.Errorf("Expected proxy %s for %s, got %s", tt.want, tt.target, got)
		}
	}
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	if got := newHTTPClient(Config{}, 90*time.Second).Timeout; got != 90*time.Second {
		t.Errorf("Expected default timeout 90s, got %v", got)
	}
	if got := newHTTPClient(Config{Timeout: 5}, 90*time.Second).Timeout; got != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", got)
	}
}
