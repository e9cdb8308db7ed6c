package csvimport

import (
	"errors"
	"strings"
	"testing"

	"fintrack/internal/core"
)

const sampleCSV = `Date,Memo,Value,Kind
2026-01-05,Grocery store,-45.50,
2026-01-06,Paycheck,"1,200.00",Credit
2026-01-07,Coffee,$4.25,Debit
`

func mustParse(t *testing.T, name, data string) *File {
	t.Helper()
	f, err := Parse(name, strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return f
}

func TestParse(t *testing.T) {
	t.Run("rejects non-csv extension before reading", func(t *testing.T) {
		_, err := Parse("statement.xlsx", strings.NewReader(sampleCSV))
		if !errors.Is(err, ErrNotCSV) {
			t.Errorf("Parse() error = %v, want ErrNotCSV", err)
		}
	})

	t.Run("rejects header-only file", func(t *testing.T) {
		_, err := Parse("empty.csv", strings.NewReader("Date,Memo,Value\n"))
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("Parse() error = %v, want ErrEmptyFile", err)
		}
	})

	t.Run("keys rows by header name", func(t *testing.T) {
		f := mustParse(t, "sample.csv", sampleCSV)
		if len(f.Rows) != 3 {
			t.Fatalf("Parse() rows = %d, want 3", len(f.Rows))
		}
		if f.Rows[0]["Memo"] != "Grocery store" {
			t.Errorf("row 0 Memo = %q", f.Rows[0]["Memo"])
		}
		if f.Rows[1]["Value"] != "1,200.00" {
			t.Errorf("row 1 Value = %q", f.Rows[1]["Value"])
		}
	})
}

func TestColumnMapping_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mapping   ColumnMapping
		wantField string
	}{
		{"missing date", ColumnMapping{Description: "Memo", Amount: "Value"}, "date"},
		{"missing description", ColumnMapping{Date: "Date", Amount: "Value"}, "description"},
		{"missing amount", ColumnMapping{Date: "Date", Description: "Memo"}, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	t.Run("type column is optional", func(t *testing.T) {
		m := ColumnMapping{Date: "Date", Description: "Memo", Amount: "Value"}
		if err := m.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestMapRows_TypeInference(t *testing.T) {
	f := mustParse(t, "sample.csv", sampleCSV)

	t.Run("sign based when type column absent", func(t *testing.T) {
		m := ColumnMapping{Date: "Date", Description: "Memo", Amount: "Value"}
		rows, rowErrs, err := MapRows(f, m)
		if err != nil {
			t.Fatalf("MapRows() error = %v", err)
		}
		if len(rowErrs) != 0 {
			t.Fatalf("MapRows() row errors = %v", rowErrs)
		}
		// -45.50 with no type column -> expense with magnitude 45.50
		if rows[0].Type != core.Expense || rows[0].Amount.Cents != 4550 {
			t.Errorf("row 0 = %v/%d, want expense/4550", rows[0].Type, rows[0].Amount.Cents)
		}
		if rows[1].Type != core.Income || rows[1].Amount.Cents != 120000 {
			t.Errorf("row 1 = %v/%d, want income/120000", rows[1].Type, rows[1].Amount.Cents)
		}
	})

	t.Run("keyword match beats sign", func(t *testing.T) {
		m := ColumnMapping{Date: "Date", Description: "Memo", Amount: "Value", Type: "Kind"}
		rows, _, err := MapRows(f, m)
		if err != nil {
			t.Fatalf("MapRows() error = %v", err)
		}
		// "Credit" with a positive amount stays income; "Debit" forces expense
		// even though 4.25 is positive.
		if rows[1].Type != core.Income {
			t.Errorf("Credit row type = %v, want income", rows[1].Type)
		}
		if rows[2].Type != core.Expense || rows[2].Amount.Cents != 425 {
			t.Errorf("Debit row = %v/%d, want expense/425", rows[2].Type, rows[2].Amount.Cents)
		}
		// Empty type cell falls back to sign.
		if rows[0].Type != core.Expense {
			t.Errorf("empty-type row = %v, want expense", rows[0].Type)
		}
	})
}

func TestMapRows_BadAmountRejectsRow(t *testing.T) {
	data := "Date,Memo,Value\n2026-01-05,Ok,10.00\n2026-01-06,Broken,n/a\n"
	f := mustParse(t, "bad.csv", data)
	m := ColumnMapping{Date: "Date", Description: "Memo", Amount: "Value"}

	rows, rowErrs, err := MapRows(f, m)
	if err != nil {
		t.Fatalf("MapRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("MapRows() kept %d rows, want 1", len(rows))
	}
	if len(rowErrs) != 1 || rowErrs[0].Row != 2 {
		t.Fatalf("MapRows() row errors = %v, want one at row 2", rowErrs)
	}
}

func TestPreview_TruncatesToTen(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Date,Memo,Value\n")
	for i := 0; i < 25; i++ {
		sb.WriteString("2026-01-05,Item,5.00\n")
	}
	f := mustParse(t, "long.csv", sb.String())
	m := ColumnMapping{Date: "Date", Description: "Memo", Amount: "Value"}

	rows, _, err := Preview(f, m)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(rows) != PreviewLimit {
		t.Errorf("Preview() = %d rows, want %d", len(rows), PreviewLimit)
	}
}

// Mapping the same file twice must produce pairwise identical rows; this is
// what guarantees a committed import matches its preview.
func TestMapRows_Idempotent(t *testing.T) {
	f := mustParse(t, "sample.csv", sampleCSV)
	m := ColumnMapping{Date: "Date", Description: "Memo", Amount: "Value", Type: "Kind"}

	first, _, err := MapRows(f, m)
	if err != nil {
		t.Fatalf("MapRows() error = %v", err)
	}
	second, _, err := MapRows(f, m)
	if err != nil {
		t.Fatalf("MapRows() second error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if !a.Date.Equal(b.Date) || a.Description != b.Description ||
			a.Amount != b.Amount || a.Type != b.Type {
			t.Errorf("row %d differs between runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	tests := []string{
		"2026-01-05",
		"01/05/2026",
		"2026/01/05",
		"Jan 5, 2026",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			d, err := parseDate(in)
			if err != nil {
				t.Fatalf("parseDate(%q) error = %v", in, err)
			}
			if d.Year() != 2026 {
				t.Errorf("parseDate(%q).Year() = %d", in, d.Year())
			}
		})
	}
}
