package validation

import (
	"strings"
	"unicode"
)

// Characters that make spreadsheet software evaluate a cell instead of
// displaying it.
const formulaLeaders = "=+-@\t\r"

// SanitizeForFormulaInjection prepends a single quote when the cell would
// otherwise be interpreted as a formula, so exported CSV stays inert when
// opened in spreadsheet software. Both the raw first rune and the first
// rune after trimming are checked: spreadsheets ignore leading whitespace
// when deciding whether a cell is a formula.
func SanitizeForFormulaInjection(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune(formulaLeaders, rune(s[0])) {
		return "'" + s
	}
	trimmed := strings.TrimSpace(s)
	if trimmed != "" && strings.ContainsRune(formulaLeaders, rune(trimmed[0])) {
		return "'" + s // keep the original spacing, only the prefix changes
	}
	return s
}

// StripUnprintable drops control and other non-printable runes from raw
// input fields. Tabs, newlines and carriage returns survive.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case unicode.IsPrint(r):
			return r
		}
		return -1
	}, s)
}

// CleanField is the standard scrub for a raw spreadsheet cell: strip
// unprintable runes, then surrounding whitespace.
func CleanField(s string) string {
	return strings.TrimSpace(StripUnprintable(s))
}
