package utils

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Иванов И.И.", "Иванов_И.И."},
		{"report 2026.xlsx", "report_2026.xlsx"},
		{"a/b\\c:d", "abcd"},
		{"", "document"},
		{"///", "document"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestHumanizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Контроль_сроков.xlsx", "Контроль сроков.xlsx"},
		{"srokiKontrolya.xlsx", "sroki Kontrolya.xlsx"},
		{"", "document"},
	}
	for _, c := range cases {
		if got := HumanizeFilename(c.in); got != c.want {
			t.Errorf("HumanizeFilename(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("expected empty string for zero date, got %q", got)
	}
	d := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "05.03.2026" {
		t.Errorf("expected 05.03.2026, got %q", got)
	}
}
