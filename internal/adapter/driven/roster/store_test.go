package roster_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crfernandes/persondir/internal/adapter/driven/audit"
	"github.com/crfernandes/persondir/internal/adapter/driven/cipher"
	"github.com/crfernandes/persondir/internal/adapter/driven/roster"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

func newTestCipher(t *testing.T) *cipher.Cipher {
	t.Helper()
	c, err := cipher.New(filepath.Join(t.TempDir(), ".key"), nil)
	require.NoError(t, err)
	return c
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const rosterCSV = "N,GRAD,NOME COMPLETO,NOME DE GUERRA,CPF,SARAM,EMAIL EXTERNO,TELEFONE\n" +
	"1,3S,MARIA DA SILVA,SILVA,52998224725,7654321,maria@example.com,11987654321\n" +
	"2,2S,JOAO PEREIRA,PEREIRA,11111111111,123456,joao@example.com,1133334444\n"

func TestStore_LoadFromCSV(t *testing.T) {
	c := newTestCipher(t)
	sink := audit.NewMemorySink()
	store := roster.NewStore(roster.NewCSVSource(writeCSV(t, rosterCSV)), c, sink, nil)

	records, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "MARIA DA SILVA", records[0].FullName)
	assert.Equal(t, "SILVA", records[0].WarName)
	assert.Equal(t, "3S", records[0].RankGrade)
	assert.Equal(t, "52998224725", records[0].NationalID)
	assert.Equal(t, "7654321", records[0].Registration)
	assert.Len(t, records[0].NationalIDHash, 16)
	assert.Equal(t, "JOAO PEREIRA", records[1].FullName)
}

func TestStore_DecryptsEncryptedColumns(t *testing.T) {
	c := newTestCipher(t)

	nationalToken, err := c.Encrypt("52998224725")
	require.NoError(t, err)
	registrationToken, err := c.Encrypt("7654321")
	require.NoError(t, err)

	// Mixed corpus: one encrypted row, one legacy plaintext row.
	csv := "NOME COMPLETO,CPF,SARAM\n" +
		"MARIA DA SILVA," + nationalToken + "," + registrationToken + "\n" +
		"JOAO PEREIRA,11144477735,123456\n"

	store := roster.NewStore(roster.NewCSVSource(writeCSV(t, csv)), c, nil, nil)

	records, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "52998224725", records[0].NationalID)
	assert.Equal(t, "7654321", records[0].Registration)
	assert.Equal(t, "11144477735", records[1].NationalID)

	// Without decryption the at-rest form comes back.
	stored, err := store.Load(context.Background(), true, false)
	require.NoError(t, err)
	assert.Equal(t, nationalToken, stored[0].NationalID)
}

func TestStore_SanitizesCells(t *testing.T) {
	csv := "NOME COMPLETO,CPF\n" +
		"<b>MARIA</b>   DA;SILVA--,52998224725\n"

	store := roster.NewStore(roster.NewCSVSource(writeCSV(t, csv)), newTestCipher(t), nil, nil)

	records, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)
	require.Len(t, records, 1)

	for _, forbidden := range []string{"<", ">", ";", "--"} {
		assert.NotContains(t, records[0].FullName, forbidden)
	}
}

func TestStore_CacheReadsSourceOnce(t *testing.T) {
	path := writeCSV(t, rosterCSV)
	store := roster.NewStore(roster.NewCSVSource(path), newTestCipher(t), nil, nil)

	_, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)

	// Removing the file proves subsequent loads come from the cache.
	require.NoError(t, os.Remove(path))

	records, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Clearing the cache forces a re-read, which now fails.
	store.ClearCache()
	_, err = store.Load(context.Background(), true, true)
	assert.ErrorIs(t, err, driven.ErrSourceNotFound)
}

func TestStore_SourceNotFound(t *testing.T) {
	store := roster.NewStore(roster.NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")), newTestCipher(t), nil, nil)

	_, err := store.Load(context.Background(), true, true)
	assert.ErrorIs(t, err, driven.ErrSourceNotFound)
}

func TestStore_SourceUnreadable(t *testing.T) {
	// A quoted field that never closes is a CSV parse error.
	path := writeCSV(t, "NOME COMPLETO,CPF\n\"MARIA,529\n")

	store := roster.NewStore(roster.NewCSVSource(path), newTestCipher(t), nil, nil)

	_, err := store.Load(context.Background(), true, true)
	assert.ErrorIs(t, err, driven.ErrSourceUnreadable)
}

func TestStore_SkipsBlankRows(t *testing.T) {
	csv := "NOME COMPLETO,CPF\nMARIA DA SILVA,52998224725\n,\n,\n"

	store := roster.NewStore(roster.NewCSVSource(writeCSV(t, csv)), newTestCipher(t), nil, nil)

	records, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_AuditsLoadWithoutSensitiveData(t *testing.T) {
	sink := audit.NewMemorySink()
	store := roster.NewStore(roster.NewCSVSource(writeCSV(t, rosterCSV)), newTestCipher(t), sink, nil)

	_, err := store.Load(context.Background(), true, true)
	require.NoError(t, err)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Detail, "52998224725")
	assert.NotContains(t, entries[0].Detail, "7654321")
}
