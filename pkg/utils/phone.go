package utils

import (
	"errors"
	"regexp"
	"strings"
)

// defaultCountryCode is prepended to bare national numbers. Phone-keyed
// lookups (users, OTP state) only work when every caller normalizes the
// same way.
const defaultCountryCode = "+91"

var (
	digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)
	e164Regex       = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// NormalizePhone converts user-entered phone numbers to E.164. Accepted
// inputs: full E.164, national numbers with or without a leading zero,
// and any of those with spaces, hyphens or parentheses mixed in.
func NormalizePhone(phone string) (string, error) {
	if phone == "" {
		return "", errors.New("phone number cannot be empty")
	}

	hasPlus := strings.HasPrefix(strings.TrimSpace(phone), "+")
	digits := digitsOnlyRegex.ReplaceAllString(phone, "")
	if digits == "" {
		return "", errors.New("phone number has no digits")
	}

	var normalized string
	switch {
	case hasPlus:
		normalized = "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == 11:
		normalized = defaultCountryCode + digits[1:]
	case len(digits) == 10:
		normalized = defaultCountryCode + digits
	default:
		normalized = "+" + digits
	}

	if !e164Regex.MatchString(normalized) {
		return "", errors.New("invalid phone number format")
	}
	return normalized, nil
}

// DisplayPhone formats an E.164 number for listings: country code, then
// the subscriber number in two groups.
func DisplayPhone(phone string) string {
	if !e164Regex.MatchString(phone) {
		return phone
	}

	national := phone[len(phone)-10:]
	prefix := phone[:len(phone)-10]
	if len(phone) <= 10 {
		return phone
	}
	return prefix + " " + national[:5] + " " + national[5:]
}
