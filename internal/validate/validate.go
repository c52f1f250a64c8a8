// Package validate provides stateless validation and sanitization of person
// identifiers and contact fields. Every function returns a verdict; none
// panics or returns an error, so callers can aggregate many field failures
// into one report.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names used in validation results and projections.
const (
	FieldNationalID   = "national_id"
	FieldRegistration = "registration"
	FieldEmail        = "email"
	FieldPhone        = "phone"
)

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// Characters and sequences commonly used in injection payloads.
	dangerousSeqs = []string{"--", "/*", "*/", "<", ">", `"`, "'", ";", "`", "|", "&", "%"}
)

// Sanitize strips the injection denylist from s, collapses internal
// whitespace, and trims. Empty input yields "".
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	for _, seq := range dangerousSeqs {
		s = strings.ReplaceAll(s, seq, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// CleanDigits returns only the decimal digits of s.
func CleanDigits(s string) string {
	if s == "" {
		return ""
	}
	return nonDigitRe.ReplaceAllString(s, "")
}

// NationalID validates an 11-digit national tax ID, including both weighted
// check digits. Formatting characters are stripped before checking.
func NationalID(value string) (bool, string) {
	id := CleanDigits(value)

	if len(id) != 11 {
		return false, fmt.Sprintf("national ID must have 11 digits (got %d)", len(id))
	}

	// All-identical-digit IDs pass the checksum but are a known-invalid class.
	if strings.Count(id, string(id[0])) == 11 {
		return false, "national ID is a known-invalid repeated-digit sequence"
	}

	if id[9]-'0' != checkDigit(id[:9]) {
		return false, "national ID failed first check digit"
	}
	if id[10]-'0' != checkDigit(id[:10]) {
		return false, "national ID failed second check digit"
	}

	return true, "national ID is valid"
}

// checkDigit computes the weighted-sum-mod-11 check digit for the given
// prefix: weights run from len(prefix)+1 down to 2, remainder < 2 maps to 0.
func checkDigit(prefix string) byte {
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (len(prefix) + 1 - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return byte(11 - rem)
}

// FormatNationalID renders an 11-digit ID as XXX.XXX.XXX-XX for display.
// Returns "" when the cleaned value is not 11 digits.
func FormatNationalID(value string) string {
	id := CleanDigits(value)
	if len(id) != 11 {
		return ""
	}
	return fmt.Sprintf("%s.%s.%s-%s", id[:3], id[3:6], id[6:9], id[9:])
}

// RegistrationNumber validates a service registration number: 4 to 8 digits.
func RegistrationNumber(value string) (bool, string) {
	reg := CleanDigits(value)

	if len(reg) < 4 || len(reg) > 8 {
		return false, fmt.Sprintf("registration number must have 4 to 8 digits (got %d)", len(reg))
	}

	return true, "registration number is valid"
}

// Email validates a local@domain.tld address. Consecutive dots, boundary
// dots, "@." / ".@", and addresses over 254 characters are rejected.
func Email(value string) bool {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" || len(email) > 254 {
		return false
	}
	if !emailRe.MatchString(email) {
		return false
	}
	if strings.Contains(email, "..") ||
		strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") ||
		strings.Contains(email, "@.") || strings.Contains(email, ".@") {
		return false
	}
	return true
}

// Phone validates and formats a Brazilian phone number: 10 or 11 digits with
// an area code between 11 and 99. Returns the formatted number and true, or
// ("", false).
func Phone(value string) (string, bool) {
	digits := CleanDigits(value)
	if len(digits) < 10 || len(digits) > 11 {
		return "", false
	}
	if digits[0] == '0' || (digits[0] == '1' && digits[1] == '0') {
		return "", false
	}
	if len(digits) == 11 {
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:]), true
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:6], digits[6:]), true
}

// NormalizeText collapses whitespace and upper-cases s, for case-insensitive
// roster matching.
func NormalizeText(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
