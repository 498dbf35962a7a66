package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
)

// ImportRow is one parsed spreadsheet row. Err is set when the row could not
// be turned into an EntryInput; the row is then reported instead of saved.
// Line is the row number in the source sheet (header is line 1); zero means
// the row's position in the batch is used instead.
type ImportRow struct {
	Input EntryInput
	Err   error
	Line  int
}

var ErrUnsupportedFile = errors.New("unsupported import file type")

var headerAliases = map[string]string{
	"employee_code":   "employee_code",
	"employee_id":     "employee_code",
	"code":            "employee_code",
	"work_email":      "work_email",
	"email":           "work_email",
	"first_name":      "first_name",
	"last_name":       "last_name",
	"hire_date":       "hire_date",
	"date_of_joining": "hire_date",
	"hire_year":       "hire_year",
	"joining_year":    "hire_year",
	"hire_serial":     "hire_serial",
	"joining_serial":  "hire_serial",
	"role":            "role",
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
}

// ParseImportFile reads a CSV or XLSX upload. The first row is the header.
func ParseImportFile(filename string, data []byte) ([]ImportRow, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx":
		records, err = readWorkbook(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records)
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", apperrors.ErrValidation, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", apperrors.ErrValidation, err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no worksheet found", apperrors.ErrValidation)
	}
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}
	return rows, nil
}

func rowsFromRecords(records [][]string) ([]ImportRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrValidation)
	}

	columns := map[string]int{}
	for idx, header := range records[0] {
		if field, ok := headerAliases[normalizeHeader(header)]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = idx
			}
		}
	}
	for _, required := range []string{"employee_code", "work_email"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing %s column", apperrors.ErrValidation, required)
		}
	}

	out := make([]ImportRow, 0, len(records)-1)
	for idx, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := parseRecord(record, columns)
		row.Line = idx + 2
		out = append(out, row)
	}
	return out, nil
}

func parseRecord(record []string, columns map[string]int) ImportRow {
	value := func(field string) string {
		idx, ok := columns[field]
		if !ok {
			return ""
		}
		return cellValue(record, idx)
	}

	in := EntryInput{
		EmployeeCode: value("employee_code"),
		WorkEmail:    value("work_email"),
		FirstName:    value("first_name"),
		LastName:     value("last_name"),
	}

	if raw := value("role"); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			return ImportRow{Input: in, Err: err}
		}
		in.Role = role
	}
	if raw := value("hire_date"); raw != "" {
		parsed, err := parseImportDate(raw)
		if err != nil {
			return ImportRow{Input: in, Err: err}
		}
		in.HireDate = &parsed
	}
	for field, target := range map[string]**int{"hire_year": &in.HireYear, "hire_serial": &in.HireSerial} {
		raw := value(field)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(raw, ".0"))
		if err != nil {
			return ImportRow{Input: in, Err: fmt.Errorf("%w: %s %q is not a number", apperrors.ErrValidation, field, raw)}
		}
		*target = &n
	}
	return ImportRow{Input: in}
}

func parseImportDate(raw string) (time.Time, error) {
	// Workbook dates arrive as serial day numbers; the range keeps plain years out.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 20000 && serial <= 80000 {
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: hire date %q is not a recognised date", apperrors.ErrValidation, raw)
}

func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(header)
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
