package filecache

import (
	"os"
	"testing"
	"time"
)

func TestGetLatestEmpty(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if path, ok := c.GetLatest(); ok {
		t.Fatalf("expected no latest file, got %q", path)
	}
}

func TestSaveAndGetLatest(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := c.SaveLatest([]byte("first"), "контроль сроков.xlsx")
	if err != nil {
		t.Fatalf("SaveLatest: %v", err)
	}
	got, ok := c.GetLatest()
	if !ok || got != path {
		t.Fatalf("expected latest %q, got %q (ok=%v)", path, got, ok)
	}
	data, _ := os.ReadFile(got)
	if string(data) != "first" {
		t.Errorf("expected file content preserved, got %q", data)
	}

	// a later save becomes the latest
	time.Sleep(10 * time.Millisecond)
	path2, err := c.SaveLatest([]byte("second"), "обновление.xlsx")
	if err != nil {
		t.Fatalf("SaveLatest second: %v", err)
	}
	got, ok = c.GetLatest()
	if !ok || got != path2 {
		t.Fatalf("expected latest %q after replace, got %q", path2, got)
	}
}

func TestSaveLatestReplacesInPlace(t *testing.T) {
	c, _ := New(t.TempDir(), nil)

	if _, err := c.SaveLatest([]byte("v1"), "контроль.xlsx"); err != nil {
		t.Fatalf("SaveLatest: %v", err)
	}
	path, err := c.SaveLatest([]byte("v2"), "контроль.xlsx")
	if err != nil {
		t.Fatalf("SaveLatest replace: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "v2" {
		t.Errorf("expected replaced content v2, got %q", data)
	}
}
