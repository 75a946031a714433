package util

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reCurrencyNoise = regexp.MustCompile(`(?i)^r\$\s*`)
	reThousandDots  = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	reThousandComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// CoerceAmount turns a spreadsheet cell into a monetary amount.
// Anything non-numeric, including an empty cell, coerces to zero by
// policy: the ledger favors availability over strict validation.
func CoerceAmount(input string) decimal.Decimal {
	token := strings.TrimSpace(strings.ReplaceAll(input, " ", " "))
	token = reCurrencyNoise.ReplaceAllString(token, "")
	token = strings.ReplaceAll(token, " ", "")
	if token == "" {
		return decimal.Zero
	}

	switch {
	case reThousandDots.MatchString(token):
		token = strings.ReplaceAll(token, ".", "")
		token = strings.ReplaceAll(token, ",", ".")
	case reThousandComma.MatchString(token):
		token = strings.ReplaceAll(token, ",", "")
	case strings.Contains(token, ",") && !strings.Contains(token, "."):
		token = strings.ReplaceAll(token, ",", ".")
	}

	parsed, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
