// Package application wires the domain ports into the operations the admin
// front ends call: roster search, exact lookup, validated projections, and
// remote directory fetches.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
	"github.com/crfernandes/persondir/internal/validate"
)

// RosterService answers queries against the local person roster. All inputs
// are sanitized before they reach the store, and every operation leaves a
// hash-only audit entry.
type RosterService struct {
	store  driven.RosterStore
	sink   driven.AuditSink
	logger *slog.Logger
	actor  string
}

// NewRosterService creates a RosterService. actor is recorded on audit
// entries; an empty actor takes the sink's default.
func NewRosterService(store driven.RosterStore, sink driven.AuditSink, actor string) *RosterService {
	return &RosterService{
		store:  store,
		sink:   sink,
		logger: slog.Default(),
		actor:  actor,
	}
}

// SearchByName returns the roster records whose full name or war name
// contains the term. Matching is case-insensitive unless caseSensitive is
// set; either way the term is sanitized and whitespace-collapsed first. An
// empty or fully-sanitized-away term is ErrInvalidInput.
func (s *RosterService) SearchByName(ctx context.Context, term string, caseSensitive bool) ([]model.PersonRecord, error) {
	needle := validate.Sanitize(term)
	if !caseSensitive {
		needle = validate.NormalizeText(needle)
	}
	if needle == "" {
		return nil, fmt.Errorf("%w: search term is empty after sanitization", driven.ErrInvalidInput)
	}

	records, err := s.store.Load(ctx, true, true)
	if err != nil {
		return nil, err
	}

	// Loaded cells are already sanitized, so the case-sensitive path can
	// match them verbatim.
	match := func(v string) bool {
		if caseSensitive {
			return strings.Contains(v, needle)
		}
		return strings.Contains(validate.NormalizeText(v), needle)
	}

	var matches []model.PersonRecord
	for _, rec := range records {
		if match(rec.FullName) || match(rec.WarName) {
			matches = append(matches, rec)
		}
	}

	s.audit(model.OpSearch, fmt.Sprintf("term=%s matches=%d", model.SensitiveHash(needle), len(matches)))
	return matches, nil
}

// LookupExact returns the single roster record whose normalized full name or
// war name equals the given name, or (nil, nil) when no record matches. More
// than one match, including a war name colliding with another record's full
// name, is a roster data-quality error and returns ErrAmbiguousMatch.
func (s *RosterService) LookupExact(ctx context.Context, name string) (*model.PersonRecord, error) {
	needle := validate.NormalizeText(validate.Sanitize(name))
	if needle == "" {
		return nil, fmt.Errorf("%w: name is empty after sanitization", driven.ErrInvalidInput)
	}

	records, err := s.store.Load(ctx, true, true)
	if err != nil {
		return nil, err
	}

	var found *model.PersonRecord
	for i := range records {
		if validate.NormalizeText(records[i].FullName) != needle &&
			validate.NormalizeText(records[i].WarName) != needle {
			continue
		}
		if found != nil {
			s.logger.Warn("duplicate roster entry", "name_hash", model.SensitiveHash(needle))
			return nil, fmt.Errorf("%w: more than one roster entry for that name", driven.ErrAmbiguousMatch)
		}
		found = &records[i]
	}

	if found == nil {
		s.audit(model.OpExactLookup, fmt.Sprintf("name=%s result=miss", model.SensitiveHash(needle)))
		return nil, nil
	}

	rec := *found
	s.audit(model.OpExactLookup, fmt.Sprintf("name=%s result=hit", model.SensitiveHash(needle)))
	return &rec, nil
}

// Projection returns the named person's record annotated with per-field
// validation verdicts, ready for document filling. Empty fields report as
// absent rather than invalid; a failed check never blocks the projection.
func (s *RosterService) Projection(ctx context.Context, name string) (*model.Projection, error) {
	rec, err := s.LookupExact(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	return &model.Projection{
		Record:      *rec,
		Checks:      checkRecord(rec),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// checkRecord runs the identifier and contact validators over one record.
func checkRecord(rec *model.PersonRecord) []model.ValidationResult {
	var checks []model.ValidationResult

	check := func(field, value string, verdict func(string) (bool, string)) {
		if strings.TrimSpace(value) == "" {
			checks = append(checks, model.ValidationResult{Field: field, Status: model.FieldAbsent})
			return
		}
		ok, reason := verdict(value)
		status := model.FieldValid
		if !ok {
			status = model.FieldInvalid
		}
		checks = append(checks, model.ValidationResult{Field: field, Status: status, Reason: reason})
	}

	check(validate.FieldNationalID, rec.NationalID, validate.NationalID)
	check(validate.FieldRegistration, rec.Registration, validate.RegistrationNumber)
	check(validate.FieldEmail, rec.Email, func(v string) (bool, string) {
		if validate.Email(v) {
			return true, "email is valid"
		}
		return false, "email address is malformed"
	})
	check(validate.FieldPhone, rec.Phone, func(v string) (bool, string) {
		if _, ok := validate.Phone(v); ok {
			return true, "phone number is valid"
		}
		return false, "phone number is malformed"
	})

	return checks
}

// Names returns every roster display name, sorted, for selection lists. No
// sensitive fields leave this method, so the roster is loaded undecrypted.
func (s *RosterService) Names(ctx context.Context) ([]string, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}

	s.audit(model.OpSearch, fmt.Sprintf("names=%d", len(names)))
	return names, nil
}

func (s *RosterService) names(ctx context.Context) ([]string, error) {
	records, err := s.store.Load(ctx, true, false)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for i := range records {
		names = append(names, records[i].DisplayName())
	}
	sort.Strings(names)
	return names, nil
}

// Suggestions returns up to limit display names containing the normalized
// term, for type-ahead. An empty term returns no suggestions rather than an
// error; limit <= 0 takes a default of 10.
func (s *RosterService) Suggestions(ctx context.Context, term string, limit int) ([]string, error) {
	needle := validate.NormalizeText(validate.Sanitize(term))
	if needle == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, n := range names {
		if strings.Contains(validate.NormalizeText(n), needle) {
			out = append(out, n)
			if len(out) == limit {
				break
			}
		}
	}

	s.audit(model.OpSearch, fmt.Sprintf("term=%s suggestions=%d", model.SensitiveHash(needle), len(out)))
	return out, nil
}

// ClearCache drops the store's cached roster; the next query re-reads the
// source file.
func (s *RosterService) ClearCache() {
	s.store.ClearCache()
}

func (s *RosterService) audit(op model.Operation, detail string) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(op, s.actor, detail); err != nil {
		s.logger.Warn("audit append failed", "error", err)
	}
}
