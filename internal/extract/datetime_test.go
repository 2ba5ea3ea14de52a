package extract

import (
	"testing"
	"time"
)

func TestDateTimeParser_Extract(t *testing.T) {
	parser := NewDateTimeParser()
	fallback := time.Date(2024, 12, 20, 9, 45, 30, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		wantDate string
		wantTime string
	}{
		{
			name:     "dash separated numeric date",
			text:     "debited on 15-12-2024 at your branch",
			wantDate: "2024-12-15",
			wantTime: "09:45:30",
		},
		{
			name:     "slash separated numeric date",
			text:     "debited on 05/01/2024",
			wantDate: "2024-01-05",
			wantTime: "09:45:30",
		},
		{
			name:     "month name date",
			text:     "Rs.1,500.00 debited on 15-Dec-2024",
			wantDate: "2024-12-15",
			wantTime: "09:45:30",
		},
		{
			name:     "full month name with spaces",
			text:     "credited on 3 January 2025",
			wantDate: "2025-01-03",
			wantTime: "09:45:30",
		},
		{
			name:     "relative today",
			text:     "Rs.200 debited today",
			wantDate: "2024-12-20",
			wantTime: "09:45:30",
		},
		{
			name:     "relative yesterday",
			text:     "Rs.200 debited yesterday",
			wantDate: "2024-12-19",
			wantTime: "09:45:30",
		},
		{
			name:     "24 hour time",
			text:     "debited on 15-12-2024 at 14:05",
			wantDate: "2024-12-15",
			wantTime: "14:05:00",
		},
		{
			name:     "24 hour time with seconds",
			text:     "debited at 23:59:59",
			wantDate: "2024-12-20",
			wantTime: "23:59:59",
		},
		{
			name:     "12 hour time PM",
			text:     "debited at 2:30 PM",
			wantDate: "2024-12-20",
			wantTime: "14:30:00",
		},
		{
			name:     "12 hour time AM",
			text:     "debited at 9:15 AM",
			wantDate: "2024-12-20",
			wantTime: "09:15:00",
		},
		{
			name:     "noon",
			text:     "debited at 12:00 PM",
			wantDate: "2024-12-20",
			wantTime: "12:00:00",
		},
		{
			name:     "midnight",
			text:     "debited at 12:00 AM",
			wantDate: "2024-12-20",
			wantTime: "00:00:00",
		},
		{
			name:     "no date or time falls back entirely",
			text:     "Rs.100 debited from your account",
			wantDate: "2024-12-20",
			wantTime: "09:45:30",
		},
		{
			name:     "invalid calendar date falls back",
			text:     "debited on 31-02-2024",
			wantDate: "2024-12-20",
			wantTime: "09:45:30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDate, gotTime := parser.Extract(tt.text, fallback)
			if gotDate != tt.wantDate {
				t.Errorf("Extract() date = %q, want %q", gotDate, tt.wantDate)
			}
			if gotTime != tt.wantTime {
				t.Errorf("Extract() time = %q, want %q", gotTime, tt.wantTime)
			}
		})
	}
}
