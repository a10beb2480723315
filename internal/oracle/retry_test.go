package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"centrifuge/internal/services"
)

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), true},
		{"transient marker", services.Wrap(services.ErrTransient, "lastfm", "get", "", nil), true},
		{"configuration marker", services.Wrap(services.ErrConfiguration, "lastfm", "get", "", nil), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Fatalf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffDoublesUpToCap(t *testing.T) {
	if got := Backoff(InitialBackoff, 0); got != InitialBackoff {
		t.Fatalf("Backoff(0) = %v", got)
	}
	if got := Backoff(InitialBackoff, 2); got != 2*time.Second {
		t.Fatalf("Backoff(2) = %v, want 2s", got)
	}
	if got := Backoff(InitialBackoff, 20); got != MaxBackoff {
		t.Fatalf("Backoff(20) = %v, want %v", got, MaxBackoff)
	}
}
