// Package rates holds the static catalog of supported currencies.
package rates

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"fintrack/internal/core"

	"gopkg.in/yaml.v3"
)

//go:embed currencies.yaml
var catalogYAML []byte

var (
	loadOnce    sync.Once
	loadErr     error
	currencies  []core.CurrencyInfo
	currencyIdx map[string]core.CurrencyInfo
)

func load() {
	var doc struct {
		Currencies []core.CurrencyInfo `yaml:"currencies"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		loadErr = fmt.Errorf("parse currency catalog: %w", err)
		return
	}
	currencies = doc.Currencies
	currencyIdx = make(map[string]core.CurrencyInfo, len(currencies))
	for _, c := range currencies {
		currencyIdx[c.Code] = c
	}
}

// Catalog returns every supported currency in catalog order.
func Catalog() ([]core.CurrencyInfo, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	return currencies, nil
}

// Lookup returns catalog info for a currency code, case-insensitively.
func Lookup(code string) (core.CurrencyInfo, bool) {
	loadOnce.Do(load)
	if loadErr != nil {
		return core.CurrencyInfo{}, false
	}
	info, ok := currencyIdx[strings.ToUpper(strings.TrimSpace(code))]
	return info, ok
}

// Symbol returns the display symbol for a code, or the code itself when the
// currency is not in the catalog.
func Symbol(code string) string {
	if info, ok := Lookup(code); ok {
		return info.Symbol
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
