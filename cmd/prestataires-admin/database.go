package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/prestataires-ui/internal/bootstrap"
	"github.com/target/prestataires-ui/internal/data"
	"github.com/target/prestataires-ui/internal/devseed"
	"github.com/target/prestataires-ui/internal/migrate"
)

// dbOptions covers every database command; each parser registers only the flags it accepts.
type dbOptions struct {
	Timeout     time.Duration
	Yes         bool
	Seed        bool
	AllowRemote bool
}

// dbStep is one logged stage of a database command.
type dbStep struct {
	name string
	run  func(ctx context.Context, db *sql.DB) error
}

func runDBSteps(cmdCtx *commandContext, timeout time.Duration, steps ...dbStep) error {
	return withDatabase(cmdCtx, timeout, func(ctx context.Context, db *sql.DB) error {
		for _, step := range steps {
			cmdCtx.Logger.Info(step.name)
			start := time.Now()
			if err := step.run(ctx, db); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
			cmdCtx.Logger.Debug("step done", "step", step.name, "duration", time.Since(start))
		}
		return nil
	})
}

func migrateStep(cmdCtx *commandContext) dbStep {
	return dbStep{name: "apply migrations", run: func(ctx context.Context, db *sql.DB) error {
		return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	}}
}

func seedStep(cmdCtx *commandContext, withCache bool) dbStep {
	return dbStep{name: "seed sample catalog", run: func(ctx context.Context, db *sql.DB) error {
		svcs := devseed.Services{Catalog: data.NewPrestataireRepo(db)}
		if withCache {
			catalog, release, err := openCatalogService(ctx, cmdCtx, db)
			if err != nil {
				cmdCtx.Logger.Warn("catalog cache unavailable; skipping invalidation", "error", err)
			} else {
				defer release()
				svcs.Cache = catalog
			}
		}
		return devseed.Run(ctx, svcs, cmdCtx.Logger)
	}}
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags("migrate", args)
	if err != nil {
		return err
	}
	return runDBSteps(cmdCtx, opts.Timeout, migrateStep(cmdCtx))
}

func runMigrateStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags("migrate-status", args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		versions, statusErr := migrate.Status(ctx, db)
		if statusErr != nil {
			return fmt.Errorf("migration status: %w", statusErr)
		}
		return printMigrationStatus(os.Stdout, versions)
	})
}

func printMigrationStatus(w io.Writer, versions []migrate.Version) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "MIGRATION\tAPPLIED"); err != nil {
		return err
	}
	pending := 0
	for _, v := range versions {
		if !v.Applied {
			pending++
		}
		if err := writef(tw, "%s\t%t\n", v.Name, v.Applied); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "%d pending\n", pending)
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBResetFlags(args)
	if err != nil {
		return err
	}

	pg := cmdCtx.Config.Postgres
	guard := remoteGuard{in: os.Stdin, out: os.Stderr}
	remote, err := guard.check(pg.Host, opts.AllowRemote, "drop every prestataires table")
	if err != nil {
		return err
	}

	remoteHost := ""
	if remote {
		remoteHost = pg.Host
	}
	target := fmt.Sprintf("database %q on %s:%d", pg.Name, pg.Host, pg.Port)
	if confirmErr := resetConfirmation(target, remoteHost, opts.Yes).ask(); confirmErr != nil {
		return confirmErr
	}

	steps := []dbStep{
		{name: "drop managed tables", run: migrate.Reset},
		migrateStep(cmdCtx),
	}
	if opts.Seed {
		steps = append(steps, seedStep(cmdCtx, false))
	}
	return runDBSteps(cmdCtx, opts.Timeout, steps...)
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}

	guard := remoteGuard{in: os.Stdin, out: os.Stderr}
	if _, guardErr := guard.check(cmdCtx.Config.Postgres.Host, opts.AllowRemote, "seed the sample catalog on the configured database"); guardErr != nil {
		return guardErr
	}
	return runDBSteps(cmdCtx, opts.Timeout,
		migrateStep(cmdCtx),
		seedStep(cmdCtx, cmdCtx.Config.Catalog.CacheEnabled),
	)
}

// newFlagSet registers --timeout and returns a parse func that validates it.
func newFlagSet(name string, timeout *time.Duration, def time.Duration, usage string) (*flag.FlagSet, func([]string) error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.DurationVar(timeout, "timeout", def, usage)
	return fs, func(args []string) error {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *timeout <= 0 {
			return errors.New("--timeout must be greater than zero")
		}
		return nil
	}
}

func parseMigrateFlags(name string, args []string) (dbOptions, error) {
	var opts dbOptions
	_, parse := newFlagSet(name, &opts.Timeout, defaultMigrationTimeout, "Maximum duration to wait for migrations")
	if err := parse(args); err != nil {
		return dbOptions{}, err
	}
	return opts, nil
}

func parseDBResetFlags(args []string) (dbOptions, error) {
	var opts dbOptions
	fs, parse := newFlagSet("db-reset", &opts.Timeout, defaultMigrationTimeout, "Maximum duration for the reset")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	fs.BoolVar(&opts.Seed, "seed", false, "Seed the sample catalog after reset completes")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit database hosts that do not look local")
	if err := parse(args); err != nil {
		return dbOptions{}, err
	}
	return opts, nil
}

func parseDBSeedFlags(args []string) (dbOptions, error) {
	var opts dbOptions
	fs, parse := newFlagSet("db-seed", &opts.Timeout, defaultMigrationTimeout, "Maximum duration for seeding")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit database hosts that do not look local")
	if err := parse(args); err != nil {
		return dbOptions{}, err
	}
	return opts, nil
}

// remoteGuard refuses destructive work on non-local hosts unless allowed and
// the operator retypes the host name.
type remoteGuard struct {
	in  io.Reader
	out io.Writer
}

var errAborted = errors.New("aborted by user")

func (g remoteGuard) check(host string, allow bool, action string) (bool, error) {
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf("refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional", host)
	}
	return true, g.confirm(host, action)
}

func (g remoteGuard) confirm(host, action string) error {
	err := writef(g.out, "\nWARNING: database host %q does not look like a local address.\nThis operation will %s.\nType %q to continue or press enter to abort: ", host, action, host)
	if err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := bufio.NewReader(g.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(errAborted, err)
	}
	if strings.TrimSpace(resp) != host {
		_ = writeln(g.out, "\nRemote safeguard check failed; aborting.")
		return errAborted
	}
	return nil
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case h == "", h == "localhost", strings.HasSuffix(h, ".local"):
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}
