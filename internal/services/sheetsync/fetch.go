package sheetsync

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/contractbot/contract-reminder/internal/common"
)

const defaultBaseURL = "https://docs.google.com/spreadsheets"

// fetchStrategy is one way of obtaining the same logical sheet.
// Strategies are tried in order; the first success short-circuits.
type fetchStrategy struct {
	name    string
	url     string
	convert func([]byte) ([]byte, error)
}

func (s *Service) strategies() []fetchStrategy {
	id, gid := s.cfg.SheetID, s.cfg.SheetGID
	if gid == "" {
		gid = "0"
	}
	return []fetchStrategy{
		{
			name: "xlsx-by-id",
			url:  fmt.Sprintf("%s/d/%s/export?format=xlsx&id=%s", s.baseURL, id, id),
		},
		{
			name: "xlsx-by-gid",
			url:  fmt.Sprintf("%s/d/%s/export?format=xlsx&gid=%s", s.baseURL, id, gid),
		},
		{
			name:    "csv-fallback",
			url:     fmt.Sprintf("%s/d/%s/export?format=csv&gid=%s", s.baseURL, id, gid),
			convert: csvToWorkbook,
		},
	}
}

func (s *Service) fetch(ctx context.Context, strategy fetchStrategy) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strategy.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, common.WrapError(err, strategy.name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %s", strategy.name, resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.WrapError(err, strategy.name)
	}
	if strategy.convert != nil {
		return strategy.convert(content)
	}
	return content, nil
}

// csvToWorkbook converts a CSV export into xlsx in memory so the rest
// of the system only ever sees the primary spreadsheet format.
func csvToWorkbook(content []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	f := excelize.NewFile()
	const sheet = "Sheet1"
	rowIdx := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, common.WrapError(err, "parse csv export")
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "write converted workbook")
	}
	return buf.Bytes(), nil
}
