package passwordreset

import (
	"testing"
	"time"
)

func TestRedeemableAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tok  Token
		want bool
	}{
		{"fresh", Token{ExpiresAt: now.Add(time.Minute)}, true},
		{"used", Token{ExpiresAt: now.Add(time.Minute), Used: true}, false},
		{"expired", Token{ExpiresAt: now.Add(-time.Minute)}, false},
		{"boundary", Token{ExpiresAt: now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tok.RedeemableAt(now); got != tt.want {
				t.Fatalf("RedeemableAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
