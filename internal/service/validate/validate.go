// Package validate holds the acceptance rules for intake form answers.
//
// Every validator is pure: it trims the raw text, decides, and returns the
// normalised value together with an accept flag. A rejection is an ordinary
// outcome, never an error.
package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Func checks one raw answer.
type Func func(raw string) (string, bool)

// Rules carries the per-field thresholds.
type Rules struct {
	MinNameLen     int
	MinPhoneDigits int
	MinMessageLen  int
}

// DefaultRules mirrors the thresholds the bot has always shipped with.
func DefaultRules() Rules {
	return Rules{
		MinNameLen:     2,
		MinPhoneDigits: 10,
		MinMessageLen:  5,
	}
}

// Name accepts a trimmed name of at least MinNameLen characters.
func (r Rules) Name(raw string) (string, bool) {
	return minLength(raw, r.MinNameLen)
}

// Phone accepts text holding at least MinPhoneDigits decimal digits. The
// trimmed original is returned so the human-readable format survives.
func (r Rules) Phone(raw string) (string, bool) {
	phone := strings.TrimSpace(raw)
	if CountDigits(phone) < r.MinPhoneDigits {
		return "", false
	}
	return phone, true
}

// Message accepts a trimmed request of at least MinMessageLen characters.
func (r Rules) Message(raw string) (string, bool) {
	return minLength(raw, r.MinMessageLen)
}

// CountDigits counts decimal digit characters in s.
func CountDigits(s string) int {
	n := 0
	for _, c := range s {
		if unicode.IsDigit(c) {
			n++
		}
	}
	return n
}

func minLength(raw string, min int) (string, bool) {
	value := strings.TrimSpace(raw)
	if utf8.RuneCountInString(value) < min {
		return "", false
	}
	return value, true
}
