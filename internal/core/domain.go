package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	AccountBank    AccountType = "bank"
	AccountCash    AccountType = "cash"
	AccountCard    AccountType = "card"
	AccountWallet  AccountType = "wallet"
	AccountSavings AccountType = "savings"
	AccountOther   AccountType = "other"
)

type (
	TransactionType string

	AccountType string

	Money struct {
		Cents int64
	}

	// Transaction carries an unsigned magnitude in Amount; Type is the
	// only direction indicator. Normalize enforces this at every entry point.
	Transaction struct {
		ID          string
		AccountID   string
		CategoryID  string
		Type        TransactionType
		Amount      Money
		Currency    string
		Date        time.Time
		Description string
	}

	Account struct {
		ID       string
		Name     string
		Type     AccountType
		Balance  Money
		Currency string
	}

	Category struct {
		ID               string
		Name             string
		Icon             IconKey
		Color            ColorToken
		Type             TransactionType
		TransactionCount int64
	}

	Budget struct {
		ID         string
		CategoryID string
		Amount     Money // spending limit
		Currency   string
		StartDate  time.Time
		EndDate    time.Time
		Spent      Money
	}

	// CurrencyInfo is static reference data for a supported currency.
	CurrencyInfo struct {
		Code   string `yaml:"code"`
		Symbol string `yaml:"symbol"`
		Flag   string `yaml:"flag"`
		Name   string `yaml:"name"`
	}

	// Settings is passed explicitly into aggregation calls so they stay
	// pure; it is never read from ambient state.
	Settings struct {
		PreferredCurrency    string
		ShowConvertedAmounts bool
		Timezone             string
	}

	// User identifies the current user for attribution only. Authentication
	// happens upstream at the identity provider.
	User struct {
		ID        string
		Name      string
		Email     string
		AvatarURL string
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCurrency      = errors.New("empty currency code")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrDateRange          = errors.New("end date must be after start date")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (a AccountType) Valid() bool {
	switch a {
	case AccountBank, AccountCash, AccountCard, AccountWallet, AccountSavings, AccountOther:
		return true
	}
	return false
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Normalize enforces the amount invariant: Amount becomes the unsigned
// magnitude, and a signed input with no valid type implies the direction.
func (t *Transaction) Normalize() {
	if !t.Type.Valid() {
		if t.Amount.Cents < 0 {
			t.Type = Expense
		} else {
			t.Type = Income
		}
	}
	t.Amount = t.Amount.Abs()
	t.Description = strings.TrimSpace(t.Description)
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(b.Currency) == "" {
		return ErrEmptyCurrency
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrZeroDate
	}
	if !b.EndDate.After(b.StartDate) {
		return ErrDateRange
	}
	return nil
}

// Location resolves the settings timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
