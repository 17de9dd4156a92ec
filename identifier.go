package authcore

import (
	"regexp"
	"strings"
)

// IdentifierKind tells which credential field a login identifier matched.
type IdentifierKind uint8

const (
	// IdentifierInvalid means the input is neither an email nor a phone.
	IdentifierInvalid IdentifierKind = iota
	// IdentifierEmail is an exported constant used for email identifiers.
	IdentifierEmail
	// IdentifierPhone is an exported constant used for phone identifiers.
	IdentifierPhone
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	phoneNoise   = regexp.MustCompile(`[\s()-]`)
)

// DetectIdentifier classifies a raw login identifier and returns its
// canonical form: emails are lowercased, phone numbers lose spacing and
// punctuation and gain a leading plus. Invalid input returns
// [IdentifierInvalid] with the empty string.
func DetectIdentifier(raw string) (IdentifierKind, string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return IdentifierInvalid, ""
	}

	if emailPattern.MatchString(trimmed) {
		return IdentifierEmail, strings.ToLower(trimmed)
	}

	digits := phoneNoise.ReplaceAllString(trimmed, "")
	if phonePattern.MatchString(digits) {
		if !strings.HasPrefix(digits, "+") {
			digits = "+" + digits
		}
		return IdentifierPhone, digits
	}

	return IdentifierInvalid, ""
}
