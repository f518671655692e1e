package websocket

import (
	"net/http/httptest"
	"testing"
)

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"allow all", nil, "https://evil.example", true},
		{"listed", []string{"https://essay.example"}, "https://essay.example", true},
		{"case insensitive", []string{"https://essay.example"}, "HTTPS://ESSAY.EXAMPLE", true},
		{"unlisted", []string{"https://essay.example"}, "https://evil.example", false},
		{"missing origin", []string{"https://essay.example"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := NewUpgrader(tt.allowed).CheckOrigin(req); got != tt.want {
				t.Errorf("CheckOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}
