package cur

import "testing"

func TestLineItemMonth(t *testing.T) {
	tests := []struct {
		name   string
		period string
		want   string
	}{
		{"normal period", "2024-05", "05"},
		{"single digit month kept as exported", "2024-5", "5"},
		{"extra separator takes second token", "2024-05-01", "05"},
		{"no separator", "202405", ""},
		{"empty period", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li := LineItem{BillingPeriod: tt.period}
			if got := li.Month(); got != tt.want {
				t.Errorf("Month() of %q = %q, want %q", tt.period, got, tt.want)
			}
		})
	}
}
