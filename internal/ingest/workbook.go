package ingest

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/contractbot/contract-reminder/internal/common"
	"github.com/contractbot/contract-reminder/internal/entity"
)

// sheetCandidates are tried in order before defaulting to the first sheet.
var sheetCandidates = []string{"Контроль", "Лист1", "Sheet1"}

// columnSpec binds a semantic field to header keywords and to the
// positional fallback used when headers are missing or mangled.
type columnSpec struct {
	field    string
	keywords []string
	fallback int
}

var columnSpecs = []columnSpec{
	{"extension_term", []string{"срок продл"}, 10},
	{"extension_start", []string{"продление с", "начало продл"}, 11},
	{"extension_end", []string{"продление по", "окончание продл"}, 12},
	{"organization", []string{"организац"}, 0},
	{"employee", []string{"фио", "сотрудник", "работник"}, 1},
	{"position", []string{"должност"}, 2},
	{"contract_number", []string{"номер"}, 3},
	{"contract_date", []string{"дата заключ", "дата контракт"}, 4},
	{"start_date", []string{"начал"}, 5},
	{"end_date", []string{"окончан", "истечен", "срок"}, 6},
	{"reminder_date", []string{"напомин"}, 7},
	{"notification_label", []string{"уведомлен"}, 8},
	{"readiness_mark", []string{"отметк", "готовност"}, 9},
	{"document_hint", []string{"вид документ", "документ"}, 13},
}

var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
	"02/01/2006",
	"01-02-06",
	"1/2/06",
}

// ParseWorkbook converts the cached workbook into contract records in
// row order. Rows without an employee or an end date are dropped; a
// malformed row never fails the batch.
func ParseWorkbook(path string) ([]entity.ContractRecord, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, common.WrapError(common.ErrSourceMissing, path)
		}
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, common.WrapError(err, "open workbook")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Debug("workbook close failed", "error", cerr)
		}
	}()

	sheet := pickSheet(f)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, common.WrapError(err, "read sheet rows")
	}

	headerIdx, cols := resolveColumns(rows)
	var records []entity.ContractRecord
	for i := headerIdx + 1; i < len(rows); i++ {
		rec, ok := parseRow(rows[i], cols)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	for _, want := range sheetCandidates {
		for _, have := range sheets {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return have
			}
		}
	}
	if len(sheets) > 0 {
		return sheets[0]
	}
	return ""
}

// resolveColumns locates the header row and maps each semantic field to
// a column index. Fields whose header never matches keep their fixed
// positional fallback, which carries encoding-mangled workbooks.
func resolveColumns(rows [][]string) (headerIdx int, cols map[string]int) {
	cols = make(map[string]int, len(columnSpecs))
	for _, spec := range columnSpecs {
		cols[spec.field] = spec.fallback
	}

	headerIdx = 0
	for i := 0; i < len(rows) && i < 10; i++ {
		if countHeaderHits(rows[i]) >= 2 {
			headerIdx = i
			claimed := make(map[int]bool)
			for _, spec := range columnSpecs {
				for j, cell := range rows[i] {
					if claimed[j] {
						continue
					}
					if matchesKeyword(cell, spec.keywords) {
						cols[spec.field] = j
						claimed[j] = true
						break
					}
				}
			}
			break
		}
	}
	return headerIdx, cols
}

func countHeaderHits(row []string) int {
	hits := 0
	for _, spec := range columnSpecs {
		for _, cell := range row {
			if matchesKeyword(cell, spec.keywords) {
				hits++
				break
			}
		}
	}
	return hits
}

func matchesKeyword(cell string, keywords []string) bool {
	c := strings.ToLower(strings.TrimSpace(cell))
	if c == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}

func parseRow(row []string, cols map[string]int) (entity.ContractRecord, bool) {
	rec := entity.ContractRecord{
		Organization:      cellAt(row, cols["organization"]),
		Employee:          cellAt(row, cols["employee"]),
		Position:          cellAt(row, cols["position"]),
		ContractNumber:    cellAt(row, cols["contract_number"]),
		ContractDate:      parseDate(cellAt(row, cols["contract_date"])),
		StartDate:         parseDate(cellAt(row, cols["start_date"])),
		EndDate:           parseDate(cellAt(row, cols["end_date"])),
		ReminderDate:      parseDate(cellAt(row, cols["reminder_date"])),
		NotificationLabel: cellAt(row, cols["notification_label"]),
		ReadinessMark:     cellAt(row, cols["readiness_mark"]),
		ExtensionTerm:     cellAt(row, cols["extension_term"]),
		ExtensionStart:    parseDate(cellAt(row, cols["extension_start"])),
		ExtensionEnd:      parseDate(cellAt(row, cols["extension_end"])),
		DocumentHint:      cellAt(row, cols["document_hint"]),
	}
	if rec.Employee == "" || !rec.HasEndDate() {
		return entity.ContractRecord{}, false
	}
	return rec, true
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// excelEpoch is day zero of the 1900 date system.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Excel serial number, as exported by unformatted date cells.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelEpoch.AddDate(0, 0, int(serial))
	}
	return time.Time{}
}
