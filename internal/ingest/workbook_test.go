package ingest

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/contractbot/contract-reminder/internal/common"
)

var testHeaders = []string{
	"Организация", "ФИО сотрудника", "Должность", "Номер контракта",
	"Дата заключения", "Начало", "Окончание контракта", "Дата напоминания",
	"Уведомление", "Отметка", "Срок продления", "Продление с", "Продление по",
	"Вид документа",
}

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "contracts.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func dataRow(employee, end string) []string {
	return []string{
		"ООО Ромашка", employee, "инженер", "42",
		"01.02.2024", "01.03.2024", end, "",
		"", "П", "", "", "", "",
	}
}

func TestParseWorkbook(t *testing.T) {
	rows := [][]string{
		testHeaders,
		dataRow("Иванов И.И.", "15.03.2026"),
		dataRow("", "15.03.2026"),      // no employee: dropped
		dataRow("Петров П.П.", ""),     // no end date: dropped
		dataRow("Сидоров С.С.", "???"), // garbage date: dropped
		dataRow("Козлова А.А.", "2026-04-01"),
	}
	path := writeWorkbook(t, "Контроль", rows)

	records, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Employee != "Иванов И.И." {
		t.Errorf("expected row order preserved, got %q first", records[0].Employee)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !records[0].EndDate.Equal(want) {
		t.Errorf("expected end date %v, got %v", want, records[0].EndDate)
	}
	if records[0].ReadinessMark != "П" {
		t.Errorf("expected readiness mark П, got %q", records[0].ReadinessMark)
	}
	if records[1].Employee != "Козлова А.А." {
		t.Errorf("expected second record Козлова, got %q", records[1].Employee)
	}
}

func TestParseWorkbookMangledHeaders(t *testing.T) {
	// Headers unreadable after an encoding round-trip: positional
	// fallback columns must carry the row.
	garbled := make([]string, len(testHeaders))
	for i := range garbled {
		garbled[i] = "Îøèáêà"
	}
	rows := [][]string{
		garbled,
		dataRow("Иванов И.И.", "15.03.2026"),
	}
	path := writeWorkbook(t, "Sheet1", rows)

	records, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record via positional columns, got %d", len(records))
	}
	if records[0].Employee != "Иванов И.И." || records[0].Organization != "ООО Ромашка" {
		t.Errorf("positional mapping broken: %+v", records[0])
	}
}

func TestParseWorkbookUnknownSheetName(t *testing.T) {
	rows := [][]string{
		testHeaders,
		dataRow("Иванов И.И.", "15.03.2026"),
	}
	path := writeWorkbook(t, "Переименованный", rows)

	records, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected fallback to first sheet, got %d records", len(records))
	}
}

func TestParseWorkbookMissingFile(t *testing.T) {
	_, err := ParseWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))
	if !errors.Is(err, common.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}
