package cmd

import "testing"

func TestNormalizeMonth(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5", "05"},
		{"9", "09"},
		{"05", "05"},
		{"12", "12"},
		{"", ""},
		{"2024-05", "2024-05"},
	}

	for _, tt := range tests {
		if got := normalizeMonth(tt.in); got != tt.want {
			t.Errorf("normalizeMonth(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
