package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

// confirmation is a y/N prompt shown before a destructive command.
type confirmation struct {
	action  string
	target  string // optional, e.g. `database "x" on host:port`
	warning string
	// skip is set by --yes or --dry-run.
	skip bool
}

func resetConfirmation(target, remoteHost string, yes bool) confirmation {
	c := confirmation{
		action:  "reset database schema",
		target:  target,
		warning: "WARNING: this will drop every prestataires table in the configured database.",
		skip:    yes,
	}
	if remoteHost != "" {
		// --yes never bypasses the prompt for a remote host.
		c.skip = false
		c.warning += fmt.Sprintf(" Host %q appears to be remote; double-check before proceeding.", remoteHost)
	}
	return c
}

func cacheConfirmation(action string, opts cacheClearOptions) confirmation {
	return confirmation{
		action:  action,
		warning: "WARNING: every replica will reload the catalog from Postgres on its next request.",
		skip:    opts.Yes || opts.DryRun,
	}
}

func (c confirmation) ask() error { return c.askFrom(os.Stdin, os.Stdout) }

func (c confirmation) askFrom(in io.Reader, out io.Writer) error {
	if c.skip {
		return nil
	}
	intro := c.warning
	if c.target != "" {
		intro = fmt.Sprintf("About to %s for %s.\n%s", c.action, c.target, c.warning)
	}
	if err := writef(out, "%s\nContinue? [y/N]: ", intro); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}

	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && resp == "" {
		_ = writef(out, "\nFailed to read confirmation input: %v\n", err)
		return errAborted
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
