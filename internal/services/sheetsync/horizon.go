package sheetsync

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/contractbot/contract-reminder/internal/common"
)

// horizonCells are the candidate addresses of the reminder-horizon
// cell; the first non-empty one wins.
var horizonCells = []string{"G5", "F5"}

var (
	monthsPattern = regexp.MustCompile(`(\d+)\s*мес`)
	daysPattern   = regexp.MustCompile(`(\d+)\s*д`)
)

// readHorizonCell pulls the raw horizon value from the workbook,
// preferring the configured sheet and falling back to the active one.
func readHorizonCell(path, sheetName string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", common.WrapError(err, "open synced workbook")
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if name == sheetName {
			sheet = name
			break
		}
	}
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	for _, cell := range horizonCells {
		value, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return "", common.WrapError(err, "read horizon cell")
		}
		if strings.TrimSpace(value) != "" {
			return value, nil
		}
	}
	return "", nil
}

// parseHorizon interprets the horizon cell: either a plain positive
// number of days, or free text combining "N мес" and "M дн" which maps
// to N*30+M. Anything else is rejected and the caller keeps the
// previous horizon.
func parseHorizon(raw string) (int, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return 0, false
	}

	if value, err := strconv.ParseFloat(text, 64); err == nil {
		days := int(value)
		if days > 0 {
			return days, true
		}
		return 0, false
	}

	months, days := 0, 0
	if m := monthsPattern.FindStringSubmatch(text); m != nil {
		months, _ = strconv.Atoi(m[1])
	}
	if m := daysPattern.FindStringSubmatch(text); m != nil {
		days, _ = strconv.Atoi(m[1])
	}
	total := months*30 + days
	if total <= 0 {
		return 0, false
	}
	return total, true
}
