package services

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"cellar-service/apperrors"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// MaxImportRows caps the number of data rows read from a single upload.
// Parsing stops at the cap even when more rows remain.
const MaxImportRows = 5000

// PreviewRows is the number of leading rows kept on a batch for display.
const PreviewRows = 5

// ParseCSV decodes raw CSV bytes into trimmed headers and rows. Decoding
// tries UTF-8 then Latin-1, in that fixed order; no further guessing.
func ParseCSV(data []byte) ([]string, []map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(decodeCSVBytes(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	record, err := r.Read()
	if err != nil {
		return nil, nil, apperrors.NewFormat("file has no headers")
	}
	headers := make([]string, len(record))
	blank := true
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, nil, apperrors.NewFormat("file has no headers")
	}

	rows := make([]map[string]string, 0)
	for len(rows) < MaxImportRows {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.NewFormat("malformed CSV content: %v", err)
		}
		if row, ok := buildRow(headers, record); ok {
			rows = append(rows, row)
		}
	}
	return headers, rows, nil
}

// ParseXLSX decodes a workbook into trimmed headers and rows. Only the first
// worksheet is read, through the streaming row iterator so the sheet is
// never materialized in full.
func ParseXLSX(data []byte) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, apperrors.NewFormat("file is empty or not a valid workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperrors.NewFormat("file is empty")
	}

	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, nil, apperrors.NewFormat("file is empty or not a valid workbook")
	}
	defer iter.Close()

	if !iter.Next() {
		return nil, nil, apperrors.NewFormat("file is empty")
	}
	record, err := iter.Columns()
	if err != nil {
		return nil, nil, apperrors.NewFormat("file has no valid headers")
	}
	headers := make([]string, len(record))
	blank := true
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank || len(headers) == 0 {
		return nil, nil, apperrors.NewFormat("file has no valid headers")
	}

	// Interior blank rows keep their position; only the trailing run of
	// blanks is cut.
	rows := make([]map[string]string, 0)
	lastFilled := 0
	for len(rows) < MaxImportRows && iter.Next() {
		record, err := iter.Columns()
		if err != nil {
			continue
		}
		row, filled := buildRow(headers, record)
		rows = append(rows, row)
		if filled {
			lastFilled = len(rows)
		}
	}
	return headers, rows[:lastFilled], nil
}

// buildRow keys a record by header name, trimming values and padding short
// records so every row carries exactly the header keys. The bool reports
// whether any value is non-empty.
func buildRow(headers, record []string) (map[string]string, bool) {
	row := make(map[string]string, len(headers))
	empty := true
	for i, h := range headers {
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row[h] = value
		if value != "" {
			empty = false
		}
	}
	return row, !empty
}

func decodeCSVBytes(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}
