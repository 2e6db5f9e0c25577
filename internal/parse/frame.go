package parse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"boirates/internal/exrate"
)

// Frame is a decoded table: one header row and the data rows beneath it.
// Rows may be shorter than the header; missing cells read as "".
type Frame struct {
	Header []string
	Rows   [][]string

	// Serials is set for spreadsheet frames, whose date cells may hold
	// serial day numbers instead of text.
	Serials  bool
	Date1904 bool
}

// Cell returns the trimmed cell at row r, column c
func (f Frame) Cell(r, c int) string {
	row := f.Rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

// Date parses the date cell at row r, column c
func (f Frame) Date(r, c int) (time.Time, error) {
	cell := f.Cell(r, c)
	if f.Serials && cell != "" {
		if serial, err := cast.ToFloat64E(cell); err == nil {
			t, err := excelize.ExcelDateToTime(serial, f.Date1904)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid serial date %q: %w", cell, err)
			}
			return exrate.CalendarDate(t), nil
		}
	}
	return ParseDate(cell)
}

// Decode turns a payload into a Frame according to its format
func Decode(p exrate.Payload) (Frame, error) {
	var (
		records  [][]string
		serials  bool
		date1904 bool
		err      error
	)

	switch p.Format {
	case exrate.FormatSpreadsheet:
		serials = true
		records, date1904, err = readSpreadsheet(p.Body)
	case exrate.FormatCSV, "":
		records, err = readCSV(p.Body)
	default:
		return Frame{}, exrate.NewDataFormatError(fmt.Sprintf("unsupported payload format %q", p.Format), nil)
	}
	if err != nil {
		return Frame{}, err
	}

	records = dropBlankRows(records)
	if len(records) == 0 {
		return Frame{}, exrate.NewNoDataError("response contained no rows")
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	frame := Frame{Header: header, Rows: records[1:], Serials: serials, Date1904: date1904}
	if len(frame.Rows) == 0 {
		return Frame{}, exrate.NewNoDataError("response contained a header but no observations")
	}
	return frame, nil
}

func readCSV(body []byte) ([][]string, error) {
	// BOMOverride strips a leading byte order mark when present
	decoded := transform.NewReader(bytes.NewReader(body), unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, exrate.NewDataFormatError("malformed csv", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// readSpreadsheet returns raw cell values of the first sheet, so date-typed
// cells come back as serial numbers rather than locale formatted text.
func readSpreadsheet(body []byte) ([][]string, bool, error) {
	book, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, exrate.NewDataFormatError("malformed spreadsheet", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, false, exrate.NewDataFormatError("spreadsheet has no sheets", nil)
	}

	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, exrate.NewDataFormatError(fmt.Sprintf("reading sheet %q", sheets[0]), err)
	}

	var date1904 bool
	if props, err := book.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	return rows, date1904, nil
}

func dropBlankRows(records [][]string) [][]string {
	out := records[:0]
	for _, record := range records {
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				out = append(out, record)
				break
			}
		}
	}
	return out
}
