package openrouter

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{429, ErrRateLimited},
		{401, ErrAuth},
		{500, ErrServer},
		{503, ErrUnknown},
	}
	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", &APIError{StatusCode: tt.status, Body: "x"})
		if got := Classify(err); got != tt.want {
			t.Errorf("Classify(status %d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestClassifySubstring(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"got 429 after 12345 retries", ErrRateLimited},
		{"upstream said 401 unauthorized", ErrAuth},
		{"500 internal server error", ErrServer},
		{"connection refused", ErrUnknown},
		// 429 wins even when other status digits appear.
		{"status 500 then 429", ErrRateLimited},
	}
	for _, tt := range tests {
		if got := Classify(errors.New(tt.msg)); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}
