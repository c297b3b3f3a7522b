package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"github.com/xuri/excelize/v2"
)

// ErrUnreadableFile is returned when an upload cannot be decoded as a sheet
var ErrUnreadableFile = errors.New("unable to parse file")

const utf8BOM = "\ufeff"

// ParseRows decodes the first sheet of data. CSV is chosen by the .csv
// extension; anything else is opened as an Excel workbook. The first row is
// the header. Header text is kept verbatim, cell values are trimmed and fully
// blank rows are dropped.
func ParseRows(data []byte, filename string) ([]models.RawImportRow, error) {
	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		records, err = readCSV(data)
	} else {
		records, err = readWorkbook(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	return recordsToRows(records), nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return records, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func recordsToRows(records [][]string) []models.RawImportRow {
	if len(records) < 2 {
		return []models.RawImportRow{}
	}
	header := records[0]

	rows := make([]models.RawImportRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		fields := make(map[string]string, len(header))
		blank := true
		for col, name := range header {
			if name == "" {
				continue
			}
			var value string
			if col < len(rec) {
				value = strings.TrimSpace(rec[col])
			}
			if value != "" {
				blank = false
			}
			fields[name] = value
		}
		if blank {
			continue
		}
		// +2: one for the header, one for 1-based numbering
		rows = append(rows, models.RawImportRow{RowNumber: i + 2, Fields: fields})
	}
	return rows
}

// BuildTemplate returns an xlsx workbook containing only the expected header row
// and one example line.
func BuildTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	example := []interface{}{"PO-1001", "A1-2040", "Air filter element", "RETAIL", "2024", "Jan", 2, 2, 150.00, "84213990", "18% GST", 300.00, 54.00}
	for i, col := range models.ImportTemplateColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, err
		}
		cell, err = excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, example[i]); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf, nil
}
