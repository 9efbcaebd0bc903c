// Command prestataires-admin runs maintenance tasks against the configured stores.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/target/prestataires-ui/config"
	"github.com/target/prestataires-ui/internal/bootstrap"
)

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

type command struct {
	name        string
	description string
	run         func(cmdCtx *commandContext, args []string) error
}

const defaultMigrationTimeout = 5 * time.Minute

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// commands is listed in the order printed by usage.
func commands() []command {
	return []command{
		{"migrate", "Run database migrations", runMigrations},
		{"migrate-status", "List embedded migrations and whether each is applied", runMigrateStatus},
		{"db-seed", "Run database migrations and seed the sample catalog", runDBSeed},
		{"db-reset", "Drop managed tables, run migrations, and optionally seed data", runDBReset},
		{"list-prestataires", "Print the prestataires stored in Postgres", runListPrestataires},
		{"list-profiles", "Print profile rows written at registration", runListProfiles},
		{"clear-catalog-cache", "Drop the cached catalog from Redis", runClearCatalogCache},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: prestataires-admin <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(w, "  %-24s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:])) //nolint:forbidigo // CLI exit status is the contract with shell scripts
}

func run(args []string) int {
	logger := bootstrap.NewLogger(os.Stderr, config.LogConfig{Format: config.LogFormatText}, false)

	if len(args) == 0 {
		_ = printUsage(os.Stderr)
		return exitUsage
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		_ = writef(os.Stderr, "unknown command %q\n\n", args[0])
		_ = printUsage(os.Stderr)
		return exitUsage
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		return exitError
	}
	if cfg.Log.Level != "" {
		logger = bootstrap.NewLogger(os.Stderr, config.LogConfig{Level: cfg.Log.Level, Format: config.LogFormatText}, cfg.IsDev)
	}

	cmdCtx := &commandContext{Ctx: context.Background(), Logger: logger, Config: cfg}
	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		logger.Error("command failed", "command", cmd.name, "error", runErr)
		return exitError
	}
	return exitOK
}
