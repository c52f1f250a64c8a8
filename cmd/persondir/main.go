// Command persondir is a thin operator CLI over the personal-data access
// layer: roster search, exact lookup, validated projections, and remote
// directory fetches. Output is masked unless -unmask is given.
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
	"github.com/crfernandes/persondir/internal/adapter/driven/directory"
	rosteradapter "github.com/crfernandes/persondir/internal/adapter/driven/roster"
	"github.com/crfernandes/persondir/internal/adapter/driven/secrets"
	sqliteadapter "github.com/crfernandes/persondir/internal/adapter/driven/sqlite"
	"github.com/crfernandes/persondir/internal/application"
	"github.com/crfernandes/persondir/internal/config"
	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, driven.UserMessage(err))
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		search     = flag.String("search", "", "list roster records whose name contains the term")
		lookup     = flag.String("lookup", "", "print the single roster record with this exact full name")
		fic        = flag.String("fic", "", "print the validated projection for this exact full name")
		fetch      = flag.String("fetch", "", "fetch one record from the remote directory by registration number")
		names      = flag.Bool("names", false, "list all roster display names")
		suggest    = flag.String("suggest", "", "print name suggestions for the term")
		unmask     = flag.Bool("unmask", false, "print sensitive fields in full instead of masked")
		caseSens   = flag.Bool("case-sensitive", false, "match the search term case-sensitively")
		useDB      = flag.Bool("db", false, "read the roster from the SQLite snapshot instead of the CSV file")
		clearCache = flag.Bool("clear-cache", false, "drop the cached roster before running the operation")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
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

	source, cleanup, err := rosterSource(cfg, *useDB)
	if err != nil {
		return err
	}
	defer cleanup()

	store := rosteradapter.NewStore(source, fieldCipher, sink, slog.Default())
	svc := application.NewRosterService(store, sink, cfg.Actor)

	if *clearCache {
		svc.ClearCache()
	}

	switch {
	case *search != "":
		records, err := svc.SearchByName(ctx, *search, *caseSens)
		if err != nil {
			return err
		}
		for i := range records {
			printRecord(records[i], *unmask)
			records[i].Wipe()
		}
		fmt.Printf("%d record(s)\n", len(records))
		return nil

	case *lookup != "":
		rec, err := svc.LookupExact(ctx, *lookup)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("no record found")
			return nil
		}
		printRecord(*rec, *unmask)
		rec.Wipe()
		return nil

	case *fic != "":
		proj, err := svc.Projection(ctx, *fic)
		if err != nil {
			return err
		}
		if proj == nil {
			fmt.Println("no record found")
			return nil
		}
		printRecord(proj.Record, *unmask)
		proj.Record.Wipe()
		fmt.Printf("generated: %s\n", proj.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		for _, c := range proj.Checks {
			fmt.Printf("  %-14s %-8s %s\n", c.Field, c.Status, c.Reason)
		}
		return nil

	case *fetch != "":
		return runFetch(ctx, cfg, sink, *fetch, *unmask)

	case *names:
		list, err := svc.Names(ctx)
		if err != nil {
			return err
		}
		for _, n := range list {
			fmt.Println(n)
		}
		return nil

	case *suggest != "":
		list, err := svc.Suggestions(ctx, *suggest, 10)
		if err != nil {
			return err
		}
		for _, n := range list {
			fmt.Println(n)
		}
		return nil

	default:
		flag.Usage()
		return nil
	}
}

// rosterSource picks the roster backing: the CSV file, or the encrypted
// SQLite snapshot written by rosterimport.
func rosterSource(cfg *config.Config, useDB bool) (rosteradapter.Source, func(), error) {
	if !useDB {
		return rosteradapter.NewCSVSource(cfg.RosterPath), func() {}, nil
	}

	db, err := sqliteadapter.NewDB(cfg.RosterDBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		cleanup()
		return nil, nil, err
	}

	repo := sqliteadapter.NewPersonRepo(db)
	return rosteradapter.NewSnapshotSource(repo, cfg.RosterDBPath), cleanup, nil
}

func runFetch(ctx context.Context, cfg *config.Config, sink driven.AuditSink, id string, unmask bool) error {
	if !cfg.HasDirectory() {
		return fmt.Errorf("%w: PERSONDIR_DIRECTORY_BASE_URL is not set", driven.ErrSecurity)
	}

	client, err := directory.New(ctx, cfg.DirectoryBaseURL, secrets.NewEnv(), sink, slog.Default(), directory.Options{
		Actor:       cfg.Actor,
		MinInterval: cfg.MinFetchInterval,
		Timeout:     cfg.FetchTimeout,
		MaxAttempts: cfg.MaxFetchAttempts,
	})
	if err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}

	rec, err := client.FetchByIdentifier(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("no record found")
		return nil
	}

	printRecord(*rec, unmask)
	rec.Wipe()
	return nil
}

func printRecord(rec model.PersonRecord, unmask bool) {
	if !unmask {
		rec = directory.MaskedView(rec)
	}

	fmt.Println(rec.DisplayName())
	lines := []struct{ label, value string }{
		{"war name", rec.WarName},
		{"specialty", rec.Specialty},
		{"unit", rec.Unit},
		{"qualification", rec.Qualification},
		{"birth date", rec.BirthDate},
		{"enlist date", rec.EnlistDate},
		{"last promotion", rec.LastPromoDate},
		{"national id", rec.NationalID},
		{"registration", rec.Registration},
		{"internal email", rec.InternalEmail},
		{"email", rec.Email},
		{"phone", rec.Phone},
	}
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		fmt.Printf("  %-14s %s\n", l.label, l.value)
	}
}
