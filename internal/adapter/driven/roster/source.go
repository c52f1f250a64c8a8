// Package roster implements the RosterStore port: it loads a tabular
// personnel source, normalizes headers to canonical columns, sanitizes every
// cell, and serves person records with the identifier columns decrypted on
// demand.
package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/crfernandes/persondir/internal/adapter/driven/sqlite"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

// Source is a tabular backing table: a header row plus data rows. Local
// sources report I/O problems through the ErrSource* sentinels and are never
// retried.
type Source interface {
	// Name identifies the source in logs and audit detail. Never sensitive.
	Name() string

	// Read returns the header row and all data rows in source order.
	Read(ctx context.Context) (header []string, rows [][]string, err error)
}

// CSVSource reads a comma-separated roster file with a header row.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for the roster file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return s.path }

func (s *CSVSource) Read(_ context.Context) ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", driven.ErrSourceNotFound, s.path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", driven.ErrSourceUnreadable, s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // real exports have ragged rows

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse %s: %v", driven.ErrSourceUnreadable, s.path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no header row", driven.ErrSourceUnreadable, s.path)
	}

	return records[0], records[1:], nil
}

// SnapshotSource reads the SQLite roster snapshot written by the importer.
type SnapshotSource struct {
	repo *sqlite.PersonRepo
	name string
}

// NewSnapshotSource creates a source over the given snapshot repo. name is
// used for logs and audit detail, typically the database path.
func NewSnapshotSource(repo *sqlite.PersonRepo, name string) *SnapshotSource {
	return &SnapshotSource{repo: repo, name: name}
}

func (s *SnapshotSource) Name() string { return s.name }

func (s *SnapshotSource) Read(ctx context.Context) ([]string, [][]string, error) {
	header, rows, err := s.repo.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", driven.ErrSourceUnreadable, err)
	}
	return header, rows, nil
}
