// Command rosterimport loads a legacy plaintext CSV roster into the
// encrypted SQLite snapshot: rows are validated (reported, never skipped for
// a bad identifier), identifier columns are encrypted, and everything else is
// stored as-is.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	auditadapter "github.com/crfernandes/persondir/internal/adapter/driven/audit"
	cipheradapter "github.com/crfernandes/persondir/internal/adapter/driven/cipher"
	rosteradapter "github.com/crfernandes/persondir/internal/adapter/driven/roster"
	sqliteadapter "github.com/crfernandes/persondir/internal/adapter/driven/sqlite"
	"github.com/crfernandes/persondir/internal/config"
	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/tabular"
	"github.com/crfernandes/persondir/internal/validate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		in      = flag.String("in", "", "CSV roster to import (default: configured roster path)")
		replace = flag.Bool("replace", false, "truncate the snapshot before importing")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *in == "" {
		*in = cfg.RosterPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := auditadapter.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			slog.Error("error closing audit sink", "error", closeErr)
		}
	}()

	fieldCipher, err := cipheradapter.New(cfg.KeyPath, slog.Default())
	if err != nil {
		return err
	}

	db, err := sqliteadapter.NewDB(cfg.RosterDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	repo := sqliteadapter.NewPersonRepo(db)
	if *replace {
		if err := repo.Truncate(ctx); err != nil {
			return err
		}
		slog.Info("snapshot truncated")
	}

	header, rows, err := rosteradapter.NewCSVSource(*in).Read(ctx)
	if err != nil {
		return err
	}

	idx := tabular.ResolveHeader(header)
	if _, ok := idx[tabular.ColFullName]; !ok {
		return fmt.Errorf("no full-name column in %s", *in)
	}

	imported, skipped, flagged := 0, 0, 0
	for n, row := range rows {
		values := make(map[string]string, len(idx))
		for col := range idx {
			values[col] = validate.Sanitize(tabular.Cell(row, idx, col))
		}

		if values[tabular.ColFullName] == "" {
			skipped++
			continue
		}

		// Bad identifiers are reported, not dropped: the roster is the
		// source of truth and fixing it is a human decision.
		if v := values[tabular.ColNationalID]; v != "" && !fieldCipher.LooksEncrypted(v) {
			if ok, reason := validate.NationalID(v); !ok {
				flagged++
				slog.Warn("invalid national ID in import",
					"row", n+2, "id_hash", model.SensitiveHash(v), "reason", reason)
			}
		}
		if v := values[tabular.ColRegistration]; v != "" && !fieldCipher.LooksEncrypted(v) {
			if ok, reason := validate.RegistrationNumber(v); !ok {
				flagged++
				slog.Warn("invalid registration number in import",
					"row", n+2, "id_hash", model.SensitiveHash(v), "reason", reason)
			}
		}

		for _, col := range tabular.EncryptedColumns {
			v := values[col]
			if v == "" || fieldCipher.LooksEncrypted(v) {
				continue
			}
			token, err := fieldCipher.Encrypt(v)
			if err != nil {
				return fmt.Errorf("encrypt row %d: %w", n+2, err)
			}
			values[col] = token
		}

		if err := repo.Insert(ctx, values); err != nil {
			return err
		}
		imported++
	}

	if err := sink.Record(model.OpLoad, cfg.Actor,
		fmt.Sprintf("import source=%s imported=%d skipped=%d flagged=%d", *in, imported, skipped, flagged)); err != nil {
		slog.Warn("audit append failed", "error", err)
	}

	slog.Info("import complete", "imported", imported, "skipped", skipped, "flagged", flagged)
	return nil
}
