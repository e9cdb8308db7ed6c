// Package csvimport maps arbitrary bank-statement CSV files onto the
// transaction shape. Preview and commit share a single mapping pass so a
// confirmed preview is exactly what gets imported.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// PreviewLimit is the number of mapped rows shown for user confirmation.
const PreviewLimit = 10

var (
	ErrNotCSV    = errors.New("file must have a .csv extension")
	ErrEmptyFile = errors.New("csv file contains no data rows")
	ErrNoHeader  = errors.New("csv file has no header row")
)

// ValidationError reports an unmapped required column.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required column %q is not mapped", e.Field)
}

// RowError reports a data row that could not be mapped. Row is 1-based over
// data rows (the header is row 0).
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ColumnMapping is the user-specified correspondence between CSV header
// names and transaction fields. Type is optional; the rest are mandatory.
type ColumnMapping struct {
	Date        string
	Description string
	Amount      string
	Type        string
}

// Validate rejects the mapping before any preview is allowed.
func (m ColumnMapping) Validate() error {
	if strings.TrimSpace(m.Date) == "" {
		return &ValidationError{Field: "date"}
	}
	if strings.TrimSpace(m.Description) == "" {
		return &ValidationError{Field: "description"}
	}
	if strings.TrimSpace(m.Amount) == "" {
		return &ValidationError{Field: "amount"}
	}
	return nil
}

// File is a parsed CSV: the header and one string map per data row.
type File struct {
	Headers []string
	Rows    []map[string]string
}

// Row is one mapped transaction candidate. Amount is always the unsigned
// magnitude; Type alone carries direction.
type Row struct {
	Date        time.Time
	Description string
	Amount      core.Money
	Type        core.TransactionType
}

// Parse reads a CSV stream. The filename's extension is checked before any
// bytes are read; a header-only or empty file is rejected.
func Parse(filename string, r io.Reader) (*File, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, ErrNotCSV
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return &File{Headers: headers, Rows: rows}, nil
}

// MapRows applies the column mapping to every data row. Rows that fail to
// parse are reported individually instead of silently becoming zero-amount
// transactions. Running it twice over the same input produces identical
// results, which is what makes preview and commit agree.
func MapRows(f *File, m ColumnMapping) ([]Row, []*RowError, error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	mapped := make([]Row, 0, len(f.Rows))
	var rowErrs []*RowError
	for i, raw := range f.Rows {
		row, err := mapRow(raw, m)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Row: i + 1, Err: err})
			continue
		}
		mapped = append(mapped, row)
	}
	return mapped, rowErrs, nil
}

// Preview maps the whole file and truncates to the first PreviewLimit rows.
// Row errors beyond the preview window are still reported so the user sees
// problems before committing.
func Preview(f *File, m ColumnMapping) ([]Row, []*RowError, error) {
	rows, rowErrs, err := MapRows(f, m)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) > PreviewLimit {
		rows = rows[:PreviewLimit]
	}
	return rows, rowErrs, nil
}

func mapRow(raw map[string]string, m ColumnMapping) (Row, error) {
	date, err := parseDate(raw[m.Date])
	if err != nil {
		return Row{}, err
	}

	amount, err := parseAmount(raw[m.Amount])
	if err != nil {
		return Row{}, err
	}

	typeCell := ""
	if m.Type != "" {
		typeCell = raw[m.Type]
	}

	return Row{
		Date:        date,
		Description: raw[m.Description],
		Amount:      core.Money{Cents: int64(math.Round(math.Abs(amount) * 100))},
		Type:        inferType(typeCell, amount),
	}, nil
}

var incomeTokens = []string{"credit", "income", "deposit"}
var expenseTokens = []string{"debit", "expense", "withdrawal"}

// inferType classifies by type-column keywords first, then by amount sign.
func inferType(typeCell string, amount float64) core.TransactionType {
	cell := strings.ToLower(typeCell)
	if cell != "" {
		for _, tok := range incomeTokens {
			if strings.Contains(cell, tok) {
				return core.Income
			}
		}
		for _, tok := range expenseTokens {
			if strings.Contains(cell, tok) {
				return core.Expense
			}
		}
	}
	if amount >= 0 {
		return core.Income
	}
	return core.Expense
}

// parseAmount strips everything except digits, minus and dot, then parses.
// An unparsable cell is an error, never a silent zero.
func parseAmount(cell string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, cell)
	if cleaned == "" {
		return 0, fmt.Errorf("amount %q has no numeric content", cell)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", cell)
	}
	return v, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, cell); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", cell)
}
