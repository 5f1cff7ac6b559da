package orders

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to done", StatusPending, StatusDone, true},
		{"pending to cancel", StatusPending, StatusCancel, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"done to pending", StatusDone, StatusPending, false},
		{"done to cancel", StatusDone, StatusCancel, false},
		{"cancel to done", StatusCancel, StatusDone, false},
		{"unknown from", Status("SHIPPED"), StatusDone, false},
		{"unknown to", StatusPending, Status("SHIPPED"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"PENDING", StatusPending, true},
		{"DONE", StatusDone, true},
		{"CANCEL", StatusCancel, true},
		{"pending", "", false},
		{"SHIPPED", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
