package tabular_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crfernandes/persondir/internal/tabular"
)

func TestCanonical_HeaderVariants(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"SARAM", tabular.ColRegistration},
		{"saram", tabular.ColRegistration},
		{" GRAD ", tabular.ColRankGrade},
		{"NOME COMPLETO", tabular.ColFullName},
		{"NOME  COMPLETO", tabular.ColFullName},
		{"NASCIMENTO\n", tabular.ColBirthDate},
		{"PRAÇA", tabular.ColEnlistDate},
		{"PRACA", tabular.ColEnlistDate},
		{"SEÇÃO", tabular.ColUnit},
		{"HAB 1", tabular.ColQualification},
		{"EMAIL EXTERNO", tabular.ColEmail},
		{"CPF", tabular.ColNationalID},
	}

	for _, tt := range tests {
		got, ok := tabular.Canonical(tt.header)
		require.True(t, ok, "header %q not resolved", tt.header)
		assert.Equal(t, tt.want, got, "header %q", tt.header)
	}
}

func TestCanonical_UnknownHeader(t *testing.T) {
	_, ok := tabular.Canonical("FAVOURITE COLOUR")
	assert.False(t, ok)
}

func TestResolveHeader(t *testing.T) {
	header := []string{"N", "SARAM", "GRAD", "NOME COMPLETO", "CPF", "OBSERVACOES"}

	idx := tabular.ResolveHeader(header)

	assert.Equal(t, 0, idx[tabular.ColSequence])
	assert.Equal(t, 1, idx[tabular.ColRegistration])
	assert.Equal(t, 2, idx[tabular.ColRankGrade])
	assert.Equal(t, 3, idx[tabular.ColFullName])
	assert.Equal(t, 4, idx[tabular.ColNationalID])
	assert.NotContains(t, idx, tabular.ColEmail)
}

func TestResolveHeader_FirstVariantWins(t *testing.T) {
	idx := tabular.ResolveHeader([]string{"EMAIL EXTERNO", "EMAIL"})
	assert.Equal(t, 0, idx[tabular.ColEmail])
}

func TestCell(t *testing.T) {
	idx := tabular.ResolveHeader([]string{"NOME COMPLETO", "CPF"})
	row := []string{"MARIA DA SILVA", "52998224725"}

	assert.Equal(t, "MARIA DA SILVA", tabular.Cell(row, idx, tabular.ColFullName))
	assert.Equal(t, "52998224725", tabular.Cell(row, idx, tabular.ColNationalID))
	assert.Equal(t, "", tabular.Cell(row, idx, tabular.ColPhone))
	assert.Equal(t, "", tabular.Cell(row[:1], idx, tabular.ColNationalID))
}
