package sqlite

import (
	"context"
	"fmt"

	"github.com/crfernandes/persondir/internal/tabular"
)

// rosterColumns is the stored column order. The names are the canonical
// tabular names, so a snapshot reads back through the same header resolution
// as a spreadsheet export.
var rosterColumns = []string{
	tabular.ColSequence,
	tabular.ColFullName,
	tabular.ColWarName,
	tabular.ColRankGrade,
	tabular.ColSpecialty,
	tabular.ColUnit,
	tabular.ColQualification,
	tabular.ColBirthDate,
	tabular.ColEnlistDate,
	tabular.ColLastPromoDate,
	tabular.ColInternalID,
	tabular.ColNationalID,
	tabular.ColRegistration,
	tabular.ColInternalEmail,
	tabular.ColEmail,
	tabular.ColPhone,
}

// PersonRepo reads and writes roster snapshot rows. Values pass through
// verbatim: the importer encrypts identifier columns before Insert, and the
// roster store decrypts after Rows. This repo never sees plaintext
// identifiers.
type PersonRepo struct {
	db *DB
}

// NewPersonRepo creates a PersonRepo on the given database.
func NewPersonRepo(db *DB) *PersonRepo {
	return &PersonRepo{db: db}
}

// Insert appends one row. values must be keyed by canonical column names;
// missing columns store as "".
func (r *PersonRepo) Insert(ctx context.Context, values map[string]string) error {
	query := `INSERT INTO persons (
		sequence, full_name, war_name, rank_grade, specialty, unit,
		qualification, birth_date, enlist_date, last_promo_date, internal_id,
		national_id, registration, internal_email, email, phone
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := make([]any, len(rosterColumns))
	for i, col := range rosterColumns {
		args[i] = values[col]
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert person row: %w", err)
	}
	return nil
}

// Rows returns all roster rows in insertion order, shaped like a tabular
// source: a header of canonical column names plus one string row per person.
func (r *PersonRepo) Rows(ctx context.Context) ([]string, [][]string, error) {
	query := `SELECT
		sequence, full_name, war_name, rank_grade, specialty, unit,
		qualification, birth_date, enlist_date, last_promo_date, internal_id,
		national_id, registration, internal_email, email, phone
	FROM persons ORDER BY id`

	dbRows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query person rows: %w", err)
	}
	defer dbRows.Close()

	var rows [][]string
	for dbRows.Next() {
		row := make([]string, len(rosterColumns))
		dest := make([]any, len(rosterColumns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := dbRows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan person row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate person rows: %w", err)
	}

	header := make([]string, len(rosterColumns))
	copy(header, rosterColumns)
	return header, rows, nil
}

// Count returns the number of stored roster rows.
func (r *PersonRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count person rows: %w", err)
	}
	return n, nil
}

// Truncate removes every roster row, for re-imports.
func (r *PersonRepo) Truncate(ctx context.Context) error {
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM persons`); err != nil {
		return fmt.Errorf("truncate persons: %w", err)
	}
	return nil
}
