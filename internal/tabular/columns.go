// Package tabular resolves the varying header spellings of the personnel
// roster into canonical column names. The alias table is fixed; resolution
// happens once per load so read paths never string-match headers.
package tabular

import "strings"

// Canonical column names shared by the local roster and the remote directory
// row mapping.
const (
	ColSequence      = "sequence"
	ColRegistration  = "registration"
	ColRankGrade     = "rank_grade"
	ColSpecialty     = "specialty"
	ColFullName      = "full_name"
	ColWarName       = "war_name"
	ColBirthDate     = "birth_date"
	ColEnlistDate    = "enlist_date"
	ColLastPromoDate = "last_promo_date"
	ColNationalID    = "national_id"
	ColInternalID    = "internal_id"
	ColUnit          = "unit"
	ColQualification = "qualification"
	ColInternalEmail = "internal_email"
	ColEmail         = "email"
	ColPhone         = "phone"
)

// SensitiveColumns are the canonical columns subject to encryption-at-rest
// and masking-on-display.
var SensitiveColumns = []string{ColNationalID, ColRegistration, ColInternalEmail, ColEmail, ColPhone}

// EncryptedColumns are the canonical columns stored as cipher tokens in the
// backing table. Contact columns are masked on display but kept plaintext at
// rest, matching the corpus this system inherits.
var EncryptedColumns = []string{ColNationalID, ColRegistration}

// aliases maps each canonical column to the accepted source header variants,
// including the spellings, accents, and stray whitespace seen in real sheets.
var aliases = map[string][]string{
	ColSequence:      {"N", "NR", "NUMERO", "NÚMERO", "SEQ"},
	ColRegistration:  {"SARAM", "REGISTRO", "MATRICULA", "MATRÍCULA"},
	ColRankGrade:     {"GRAD", "POSTO", "POSTO/GRAD", "POSTO GRADUACAO", "POSTO_GRADUACAO"},
	ColSpecialty:     {"ESP", "ESPECIALIDADE"},
	ColFullName:      {"NOME COMPLETO", "NOME_COMPLETO", "NOME"},
	ColWarName:       {"NOME DE GUERRA", "NOME_GUERRA", "NOME GUERRA", "GUERRA"},
	ColBirthDate:     {"NASCIMENTO", "DATA NASC", "DATA_NASCIMENTO", "DATA DE NASCIMENTO"},
	ColEnlistDate:    {"PRAÇA", "PRACA", "DATA PRAÇA", "DATA PRACA", "DATA_PRACA"},
	ColLastPromoDate: {"ULT PROM", "ULT_PROM", "ULTPROM", "ULTIMA PROMOCAO", "ÚLTIMA PROMOÇÃO"},
	ColNationalID:    {"CPF"},
	ColInternalID:    {"RA", "REGISTRO ADMINISTRATIVO"},
	ColUnit:          {"SEÇÃO", "SECAO", "OM", "OM INDICADO", "OM_INDICADO", "UNIDADE"},
	ColQualification: {"HAB 1", "HAB1", "HAB_1", "HABILITACAO", "HABILITAÇÃO"},
	ColInternalEmail: {"EMAIL INTERNO", "EMAIL_INTERNO", "E-MAIL INTERNO"},
	ColEmail:         {"EMAIL EXTERNO", "EMAIL_EXTERNO", "E-MAIL EXTERNO", "EMAIL", "E-MAIL"},
	ColPhone:         {"TELEFONE", "TEL", "FONE", "CELULAR"},
}

// normalizeHeader makes a source header comparable: trimmed, upper-cased,
// internal whitespace (including embedded newlines) collapsed to one space.
func normalizeHeader(h string) string {
	return strings.ToUpper(strings.Join(strings.Fields(h), " "))
}

// lookup is the flattened variant -> canonical index, built once.
var lookup = func() map[string]string {
	m := make(map[string]string, len(aliases)*4)
	for canonical, variants := range aliases {
		m[normalizeHeader(canonical)] = canonical
		for _, v := range variants {
			m[normalizeHeader(v)] = canonical
		}
	}
	return m
}()

// Canonical returns the canonical name for a source header, or ("", false)
// when the header is not in the alias table.
func Canonical(header string) (string, bool) {
	c, ok := lookup[normalizeHeader(header)]
	return c, ok
}

// ResolveHeader maps each canonical column to its index in the source header
// row. Unknown headers are ignored; when several headers resolve to the same
// canonical column (EMAIL plus EMAIL EXTERNO, say), the first wins.
func ResolveHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		canonical, ok := Canonical(h)
		if !ok {
			continue
		}
		if _, taken := idx[canonical]; taken {
			continue
		}
		idx[canonical] = i
	}
	return idx
}

// Cell returns row[idx[col]] or "" when the column is absent or the row is
// short.
func Cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
