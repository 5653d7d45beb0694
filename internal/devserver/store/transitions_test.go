package store

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{"scan", "pending", true},
		{"scan", "scanned", false},
		{"verify", "pending", true},
		{"verify", "scanned", true},
		{"verify", "verified", false},
		{"verify", "departed", false},
		{"mark_exit", "scanned", true},
		{"mark_exit", "verified", true},
		{"mark_exit", "pending", false},
		{"mark_exit", "departed", false},
		{"unknown", "pending", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}
