package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/bootstrap"
	"github.com/target/prestataires-ui/internal/data"
	"github.com/target/prestataires-ui/internal/domain/prestataire"
	"github.com/target/prestataires-ui/internal/service"
)

const defaultQueryTimeout = 30 * time.Second

type listPrestatairesOptions struct {
	Filter  prestataire.Filter
	Timeout time.Duration
}

type listProfilesOptions struct {
	Limit   int
	Timeout time.Duration
}

type cacheClearOptions struct {
	All     bool
	DryRun  bool
	Yes     bool
	Timeout time.Duration
}

func runListPrestataires(cmdCtx *commandContext, args []string) error {
	opts, err := parseListPrestatairesFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		records, listErr := data.NewPrestataireRepo(db).List(ctx)
		if listErr != nil {
			return fmt.Errorf("list prestataires: %w", listErr)
		}
		return printPrestataires(os.Stdout, opts.Filter.Apply(records), len(records))
	})
}

func printPrestataires(w io.Writer, records []prestataire.Prestataire, total int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "ID\tCOMPANY\tSPECIALTY\tSTATUS\tCHANTIERS\tLAST CONTACT"); err != nil {
		return err
	}
	for _, p := range records {
		lastContact := "-"
		if !p.LastContact.IsZero() {
			lastContact = p.LastContact.Format(time.DateOnly)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Company, p.Specialty, p.Status, p.ChantierCount, lastContact); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\n%d of %d prestataires\n", len(records), total)
}

func runListProfiles(cmdCtx *commandContext, args []string) error {
	opts, err := parseListProfilesFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		profiles, listErr := data.NewProfileRepo(db).ListProfiles(ctx, opts.Limit)
		if listErr != nil {
			return fmt.Errorf("list profiles: %w", listErr)
		}
		return printProfiles(os.Stdout, profiles)
	})
}

func printProfiles(w io.Writer, profiles []data.Profile) error {
	if len(profiles) == 0 {
		return writeln(w, "No profiles found.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "ID\tEMAIL\tCREATED"); err != nil {
		return err
	}
	for _, p := range profiles {
		if err := writef(tw, "%s\t%s\t%s\n", p.ID, p.Email, p.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runClearCatalogCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseCacheClearFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := commandScope(cmdCtx, opts.Timeout)
	defer cancel()

	redisClient, release, err := openRedis(ctx, cmdCtx)
	if errors.Is(err, errRedisNotConfigured) {
		return errors.New("redis is not configured; nothing to clear")
	}
	if err != nil {
		return err
	}
	defer release()

	cache := data.NewRedisCacheRepo(redisClient)
	if opts.All {
		return clearCatalogPrefix(ctx, cache, opts)
	}

	exists, err := cache.Exists(ctx, service.CatalogCacheKey)
	if err != nil {
		return fmt.Errorf("inspect cache: %w", err)
	}
	if !exists {
		return writeln(os.Stdout, "Catalog cache is already empty.")
	}
	if opts.DryRun {
		return writef(os.Stdout, "Dry run: would delete %s\n", service.CatalogCacheKey)
	}
	if confirmErr := cacheConfirmation("clear the catalog cache", opts).ask(); confirmErr != nil {
		return confirmErr
	}

	if delErr := cache.Delete(ctx, service.CatalogCacheKey); delErr != nil {
		return fmt.Errorf("delete cache: %w", delErr)
	}
	return writef(os.Stdout, "Deleted %s\n", service.CatalogCacheKey)
}

func clearCatalogPrefix(ctx context.Context, cache *data.RedisCacheRepo, opts cacheClearOptions) error {
	pattern := service.CatalogCachePrefix + "*"
	if opts.DryRun {
		return writef(os.Stdout, "Dry run: would delete every key matching %s\n", pattern)
	}
	if err := cacheConfirmation("delete every catalog cache key", opts).ask(); err != nil {
		return err
	}
	n, err := cache.DeletePrefix(ctx, service.CatalogCachePrefix)
	if err != nil {
		return fmt.Errorf("delete cache prefix (removed %d before failing): %w", n, err)
	}
	return writef(os.Stdout, "Deleted %d key(s) matching %s\n", n, pattern)
}

// openCatalogService builds a Postgres-backed catalog with the Redis cache so
// admin writes can invalidate what the web replicas read.
func openCatalogService(ctx context.Context, cmdCtx *commandContext, db *sql.DB) (*service.CatalogService, func(), error) {
	redisClient, closeFn, err := openRedis(ctx, cmdCtx)
	if err != nil {
		return nil, nil, err
	}

	catalog, err := bootstrap.BuildCatalogService(bootstrap.CatalogDeps{
		Context: ctx,
		Catalog: config.CatalogConfig{
			Source:       config.CatalogSourcePostgres,
			CacheEnabled: true,
			CacheTTL:     cmdCtx.Config.Catalog.CacheTTL,
		},
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return catalog, closeFn, nil
}

func parseListPrestatairesFlags(args []string) (listPrestatairesOptions, error) {
	var opts listPrestatairesOptions
	fs, parse := newFlagSet("list-prestataires", &opts.Timeout, defaultQueryTimeout, "Maximum duration for the query")
	fs.StringVar(&opts.Filter.Search, "search", "", "Match company, contact or specialty")
	fs.StringVar(&opts.Filter.Status, "status", "", "Only show this status (Actif, À relancer, Inactif)")
	fs.StringVar(&opts.Filter.Specialty, "specialty", "", "Only show this specialty")
	if err := parse(args); err != nil {
		return listPrestatairesOptions{}, err
	}
	opts.Filter = opts.Filter.Normalize()
	return opts, nil
}

func parseListProfilesFlags(args []string) (listProfilesOptions, error) {
	var opts listProfilesOptions
	fs, parse := newFlagSet("list-profiles", &opts.Timeout, defaultQueryTimeout, "Maximum duration for the query")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum number of profiles to print (0 for all)")
	if err := parse(args); err != nil {
		return listProfilesOptions{}, err
	}
	if opts.Limit < 0 {
		return listProfilesOptions{}, errors.New("--limit must be zero or positive")
	}
	return opts, nil
}

func parseCacheClearFlags(args []string) (cacheClearOptions, error) {
	var opts cacheClearOptions
	fs, parse := newFlagSet("clear-catalog-cache", &opts.Timeout, defaultQueryTimeout, "Maximum duration for the operation")
	fs.BoolVar(&opts.All, "all", false, "Delete every key under "+service.CatalogCachePrefix+" instead of the current entry")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Report what would be deleted without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := parse(args); err != nil {
		return cacheClearOptions{}, err
	}
	return opts, nil
}
