package entity

import (
	"testing"
	"time"
)

func TestClassifyByMark(t *testing.T) {
	cases := []struct {
		mark string
		want DocumentType
	}{
		{"П", DocumentExtension},
		{"Н", DocumentExtension},
		{"п", DocumentExtension},
		{" н ", DocumentExtension},
		{"И", DocumentTermination},
		{"У", DocumentTermination},
		{"и", DocumentTermination},
	}
	for _, c := range cases {
		rec := ContractRecord{ReadinessMark: c.mark}
		got, ok := rec.Classify()
		if !ok {
			t.Errorf("Classify(mark=%q): expected resolved type, got unresolved", c.mark)
			continue
		}
		if got != c.want {
			t.Errorf("Classify(mark=%q): expected %s, got %s", c.mark, c.want, got)
		}
	}
}

func TestClassifyGarbledMarks(t *testing.T) {
	cases := []struct {
		mark string
		want DocumentType
	}{
		{"Ï", DocumentExtension},   // cp1251 П read as latin-1
		{"Í", DocumentExtension},   // cp1251 Н
		{"È", DocumentTermination}, // cp1251 И
		{"Ó", DocumentTermination}, // cp1251 У
		{"N", DocumentExtension},   // latin look-alike of Н
		{"Y", DocumentTermination}, // latin look-alike of У
	}
	for _, c := range cases {
		rec := ContractRecord{ReadinessMark: c.mark}
		got, ok := rec.Classify()
		if !ok || got != c.want {
			t.Errorf("Classify(mark=%q): expected %s, got %s (ok=%v)", c.mark, c.want, got, ok)
		}
	}
}

func TestClassifyByHint(t *testing.T) {
	rec := ContractRecord{DocumentHint: "готовим увольнение"}
	if got, ok := rec.Classify(); !ok || got != DocumentTermination {
		t.Errorf("expected termination from hint, got %s (ok=%v)", got, ok)
	}

	rec = ContractRecord{DocumentHint: "Продление контракта"}
	if got, ok := rec.Classify(); !ok || got != DocumentExtension {
		t.Errorf("expected extension from hint, got %s (ok=%v)", got, ok)
	}

	// notification label is the fallback hint field
	rec = ContractRecord{NotificationLabel: "уведомление об увольнении"}
	if got, ok := rec.Classify(); !ok || got != DocumentTermination {
		t.Errorf("expected termination from label, got %s (ok=%v)", got, ok)
	}
}

func TestClassifyMarkWinsOverHint(t *testing.T) {
	rec := ContractRecord{ReadinessMark: "П", DocumentHint: "увольнение"}
	if got, ok := rec.Classify(); !ok || got != DocumentExtension {
		t.Errorf("mark must take precedence over hint, got %s (ok=%v)", got, ok)
	}
}

func TestClassifyUnresolved(t *testing.T) {
	rec := ContractRecord{ReadinessMark: "X", DocumentHint: "прочее"}
	if got, ok := rec.Classify(); ok {
		t.Errorf("expected unresolved, got %s", got)
	}
	rec = ContractRecord{}
	if got, ok := rec.Classify(); ok {
		t.Errorf("expected unresolved for empty record, got %s", got)
	}
}

func TestNotificationKey(t *testing.T) {
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	got := NotificationKey("Иванов И.И.", end, DocumentExtension)
	want := "Иванов И.И.|2026-03-15|extension"
	if got != want {
		t.Errorf("expected key %q, got %q", want, got)
	}
}
