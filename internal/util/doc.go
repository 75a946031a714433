package util

import "strings"

const (
	DocWidthCPF  = 11
	DocWidthCNPJ = 14
)

// EmptyDocument is what NormalizeDocument returns for input with no
// digits. Callers must treat it as "no document supplied", never as a
// match key.
const EmptyDocument = "00000000000"

func OnlyDigits(input string) string {
	out := strings.Builder{}
	for _, r := range input {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// NormalizeDocument canonicalizes a free-form CPF/CNPJ string into a
// fixed-width digit key: up to 11 digits pad to CPF width, anything
// longer pads to CNPJ width. Idempotent, never fails.
func NormalizeDocument(input string) string {
	d := OnlyDigits(input)
	if len(d) <= DocWidthCPF {
		return leftPad(d, DocWidthCPF)
	}
	return leftPad(d, DocWidthCNPJ)
}

func NormalizeName(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// MaskDocument reveals only the last two digits. The full document is
// never logged or displayed by default.
func MaskDocument(doc string) string {
	d := OnlyDigits(doc)
	switch len(d) {
	case DocWidthCPF:
		return "***.***.***-" + d[len(d)-2:]
	case DocWidthCNPJ:
		return "**.***.***/****-" + d[len(d)-2:]
	default:
		return "documento protegido"
	}
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
