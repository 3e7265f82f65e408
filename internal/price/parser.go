// Package price turns free-text price fragments into amounts and currency codes.
package price

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sjsage522/productscout/config"
)

var (
	// First plausible grouped-decimal token wins. Runs of separators and
	// digits after the leading group are accepted as-is, so a value like
	// "1,2,3" parses as 123.
	groupedNumber = regexp.MustCompile(`\d{1,3}(?:[,\d]{0,3})*(?:\.\d+)?`)
	plainNumber   = regexp.MustCompile(`\d+(?:\.\d+)?`)

	invisibleSpace = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u200b", "", "\ufeff", "")
)

// Parsed is the result of parsing one price fragment
type Parsed struct {
	Amount   *float64
	Currency string
	Raw      string
}

// Parser detects currency symbols and amounts using a fixed symbol table
type Parser struct {
	symbols []config.CurrencySymbol
}

// NewParser creates a parser; symbols are matched in slice order
func NewParser(symbols []config.CurrencySymbol) *Parser {
	return &Parser{symbols: symbols}
}

// Parse extracts the amount and currency from text. An explicit symbol or
// code wins over hint. Malformed numbers yield a nil amount, never an error.
func (p *Parser) Parse(text, hint string) Parsed {
	s := strings.TrimSpace(invisibleSpace.Replace(text))
	out := Parsed{Raw: s}
	if s == "" {
		out.Currency = hint
		return out
	}

	out.Currency = p.detectCurrency(s)
	if out.Currency == "" {
		out.Currency = hint
	}

	token := groupedNumber.FindString(s)
	if token == "" {
		token = plainNumber.FindString(s)
	}
	if token == "" {
		return out
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil || amount < 0 {
		return out
	}
	out.Amount = &amount
	return out
}

func (p *Parser) detectCurrency(s string) string {
	for _, sym := range p.symbols {
		if strings.Contains(s, sym.Symbol) {
			return sym.Code
		}
	}
	return ""
}

// DomainHint returns the currency hinted by the host of rawURL, or "".
func DomainHint(rawURL string, hints map[string]string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return hints[strings.ToLower(u.Hostname())]
}

// Format renders amount as symbol + thousands-grouped value with two decimals,
// e.g. ₹1,299.00.
func Format(symbol string, amount float64) string {
	fixed := decimal.NewFromFloat(amount).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + symbol + b.String() + "." + frac
}
