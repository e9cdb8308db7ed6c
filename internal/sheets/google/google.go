package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client talks to Google Sheets for two jobs: reading the exchange rate
// table maintained in a spreadsheet, and appending exported transactions.
type Client struct {
	svc *gsheet.Service

	ratesSpreadsheetID string
	ratesRange         string
	baseCurrency       string

	exportSpreadsheetID string
	exportSheet         string
}

// Ensure interface conformance
var (
	_ ports.RateReader          = (*Client)(nil)
	_ ports.TransactionAppender = (*Client)(nil)
)

type Config struct {
	RatesSpreadsheetID  string
	RatesRange          string
	BaseCurrency        string
	ExportSpreadsheetID string
	ExportSheet         string
}

// New creates a Sheets client authenticated with service account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Client, error) {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	exportSheet := cfg.ExportSheet
	if exportSheet == "" {
		exportSheet = "Transactions"
	}

	return &Client{
		svc:                 svc,
		ratesSpreadsheetID:  cfg.RatesSpreadsheetID,
		ratesRange:          cfg.RatesRange,
		baseCurrency:        cfg.BaseCurrency,
		exportSpreadsheetID: cfg.ExportSpreadsheetID,
		exportSheet:         exportSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadRates implements ports.RateReader.
func (c *Client) ReadRates(ctx context.Context) (core.RateTable, error) {
	if c.svc == nil {
		return core.RateTable{}, errors.New("sheets service not initialized")
	}
	if c.ratesSpreadsheetID == "" {
		return core.RateTable{}, errors.New("rates spreadsheet not configured")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.ratesSpreadsheetID, c.ratesRange).Context(ctx).Do()
	if err != nil {
		return core.RateTable{}, fmt.Errorf("read %s: %w", c.ratesRange, err)
	}

	table := parseRateRows(resp.Values, c.baseCurrency)
	if len(table.Rates) <= 1 {
		return core.RateTable{}, fmt.Errorf("no usable rates in range %s", c.ratesRange)
	}
	return table, nil
}

// AppendTransaction implements ports.TransactionAppender.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if c.exportSpreadsheetID == "" {
		return "", errors.New("export spreadsheet not configured")
	}

	amount := float64(tx.Amount.Cents) / 100.0
	if tx.Type == core.Expense {
		amount = -amount
	}

	rng := fmt.Sprintf("%s!A:F", c.exportSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		tx.Date.Format("2006-01-02"),
		tx.Description,
		amount,
		tx.Currency,
		string(tx.Type),
		tx.ID,
	}}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.exportSpreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.exportSheet, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
