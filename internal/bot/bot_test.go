package bot

import (
	"testing"
	"time"
)

func TestAuthorized(t *testing.T) {
	open := &Bot{allow: map[int64]struct{}{}}
	if !open.authorized(123) {
		t.Error("empty allow-list must mean open access")
	}

	gated := &Bot{allow: map[int64]struct{}{100: {}}}
	if !gated.authorized(100) {
		t.Error("listed chat must be authorized")
	}
	if gated.authorized(200) {
		t.Error("unlisted chat must be rejected")
	}
}

func TestZoneLabel(t *testing.T) {
	if got := zoneLabel(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); got != "UTC" {
		t.Errorf("expected UTC label, got %q", got)
	}

	offset := time.FixedZone("+03", 3*3600)
	if got := zoneLabel(time.Date(2026, 1, 1, 0, 0, 0, 0, offset)); got != "UTC+3" {
		t.Errorf("expected UTC+3 label, got %q", got)
	}
}
