package directory

import (
	"strings"

	"github.com/crfernandes/persondir/internal/domain/model"
)

// MaskedView returns a copy of rec with every sensitive field reduced to a
// partial form safe for screens and logs. The original record is untouched.
func MaskedView(rec model.PersonRecord) model.PersonRecord {
	out := rec
	out.NationalID = maskValue(rec.NationalID)
	out.Registration = maskValue(rec.Registration)
	out.InternalEmail = maskEmail(rec.InternalEmail)
	out.Email = maskEmail(rec.Email)
	out.Phone = maskPhone(rec.Phone)
	return out
}

// maskValue keeps the first and last two characters of values long enough to
// survive it; anything shorter is fully blanked.
func maskValue(v string) string {
	if v == "" {
		return ""
	}
	if len(v) < 4 {
		return "****"
	}
	return v[:2] + "****" + v[len(v)-2:]
}

// maskEmail keeps the first two characters of the local part and the full
// domain. Values without an @ fall back to the generic mask.
func maskEmail(v string) string {
	if v == "" {
		return ""
	}
	at := strings.LastIndex(v, "@")
	if at <= 0 {
		return maskValue(v)
	}
	local, domain := v[:at], v[at+1:]
	if len(local) <= 2 {
		return local + "***@" + domain
	}
	return local[:2] + "***@" + domain
}

// maskPhone keeps only the last four digits.
func maskPhone(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 5) + v[len(v)-4:]
}
