package roster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
	"github.com/crfernandes/persondir/internal/tabular"
	"github.com/crfernandes/persondir/internal/validate"
)

// Compile-time interface satisfaction check.
var _ driven.RosterStore = (*Store)(nil)

// Store is the local person-record cache. The backing table is read once per
// process (unless the cache is cleared); header resolution and cell
// sanitization happen at load time, decryption of identifier columns happens
// per call so plaintext lives only in the returned copies.
//
// A Store is owned by one caller context; it is not safe for concurrent
// mutation without external synchronization.
type Store struct {
	source Source
	cipher driven.FieldCipher
	sink   driven.AuditSink
	logger *slog.Logger

	// cache holds normalized, sanitized rows with identifier columns still
	// in their at-rest form (cipher tokens or legacy plaintext).
	cache []model.PersonRecord
}

// NewStore creates a Store over the given source.
func NewStore(source Source, cipher driven.FieldCipher, sink driven.AuditSink, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{source: source, cipher: cipher, sink: sink, logger: logger}
}

// Load implements driven.RosterStore.
func (s *Store) Load(ctx context.Context, useCache, decrypt bool) ([]model.PersonRecord, error) {
	if !useCache || s.cache == nil {
		if err := s.readSource(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]model.PersonRecord, len(s.cache))
	copy(out, s.cache)

	if decrypt {
		for i := range out {
			out[i].NationalID = s.cipher.Decrypt(out[i].NationalID)
			out[i].Registration = s.cipher.Decrypt(out[i].Registration)
			out[i].InternalEmail = s.cipher.Decrypt(out[i].InternalEmail)
			out[i].Email = s.cipher.Decrypt(out[i].Email)
			out[i].Phone = s.cipher.Decrypt(out[i].Phone)
			out[i].StampHashes()
		}
	}

	return out, nil
}

// ClearCache implements driven.RosterStore.
func (s *Store) ClearCache() {
	s.cache = nil
}

func (s *Store) readSource(ctx context.Context) error {
	header, rows, err := s.source.Read(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	idx := tabular.ResolveHeader(header)
	if _, ok := idx[tabular.ColFullName]; !ok {
		return fmt.Errorf("%w: no full-name column in %s", driven.ErrSourceUnreadable, s.source.Name())
	}

	records := make([]model.PersonRecord, 0, len(rows))
	for _, row := range rows {
		rec := recordFromRow(row, idx)
		if rec.FullName == "" {
			continue // blank padding rows at the sheet tail
		}
		records = append(records, rec)
	}

	s.cache = records
	s.logger.Info("roster loaded", "source", s.source.Name(), "records", len(records))

	if s.sink != nil {
		detail := fmt.Sprintf("source=%s records=%d", s.source.Name(), len(records))
		if err := s.sink.Record(model.OpLoad, "", detail); err != nil {
			s.logger.Warn("audit append failed", "error", err)
		}
	}

	return nil
}

// recordFromRow maps one source row to a PersonRecord. Every cell passes
// through the sanitizer; identifier cells keep their at-rest form here.
func recordFromRow(row []string, idx map[string]int) model.PersonRecord {
	cell := func(col string) string {
		return validate.Sanitize(tabular.Cell(row, idx, col))
	}

	return model.PersonRecord{
		Sequence:      cell(tabular.ColSequence),
		FullName:      cell(tabular.ColFullName),
		WarName:       cell(tabular.ColWarName),
		RankGrade:     cell(tabular.ColRankGrade),
		Specialty:     cell(tabular.ColSpecialty),
		Unit:          cell(tabular.ColUnit),
		Qualification: cell(tabular.ColQualification),
		BirthDate:     cell(tabular.ColBirthDate),
		EnlistDate:    cell(tabular.ColEnlistDate),
		LastPromoDate: cell(tabular.ColLastPromoDate),
		InternalID:    cell(tabular.ColInternalID),
		NationalID:    cell(tabular.ColNationalID),
		Registration:  cell(tabular.ColRegistration),
		InternalEmail: cell(tabular.ColInternalEmail),
		Email:         cell(tabular.ColEmail),
		Phone:         cell(tabular.ColPhone),
	}
}
