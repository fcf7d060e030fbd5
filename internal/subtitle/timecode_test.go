package subtitle

import (
	"regexp"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{3, "00:00:03,000"},
		{59.9994, "00:00:59,999"},
		{59.9999, "00:00:59,999"},
		{60, "00:01:00,000"},
		{3600, "01:00:00,000"},
		{3661.0, "01:01:01,000"},
		{7322.25, "02:02:02,250"},
		{86399.5, "23:59:59,500"},
		{360000, "100:00:00,000"},
		{-4, "00:00:00,000"},
	}

	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatTimePattern(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3}$`)

	for i := 0; i < 5000; i++ {
		seconds := float64(i) * 17.123
		got := FormatTime(seconds)
		if !pattern.MatchString(got) {
			t.Fatalf("FormatTime(%v) = %q, does not match SRT clock", seconds, got)
		}
	}
}

func TestFormatTimeTruncatesMillis(t *testing.T) {
	// .0009 must never carry into the next millisecond
	if got := FormatTime(0.0009); got != "00:00:00,000" {
		t.Errorf("FormatTime(0.0009) = %q, want 00:00:00,000", got)
	}
	if got := FormatTime(12.3456); got != "00:00:12,345" {
		t.Errorf("FormatTime(12.3456) = %q, want 00:00:12,345", got)
	}
}
