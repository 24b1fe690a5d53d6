// Command migrate applies, rolls back and reports the embedded schema
// migrations.
//
// Usage:
//
//	migrate [-database-url URL] up
//	migrate [-database-url URL] down [-steps N]
//	migrate [-database-url URL] status
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/zerotodo/zerotodo/internal/migrate"
	"github.com/zerotodo/zerotodo/migrations"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fset.SetOutput(stderr)
	var (
		databaseURL = fset.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		steps       = fset.Int("steps", 1, "Number of migrations to roll back (down only)")
		timeout     = fset.Duration("timeout", time.Minute, "Overall timeout")
	)
	if err := fset.Parse(args); err != nil {
		return 2
	}

	command := fset.Arg(0)
	if command == "down" {
		// Allow "down -steps N" as well as "-steps N down".
		if err := fset.Parse(fset.Args()[1:]); err != nil {
			return 2
		}
	}
	switch command {
	case "up", "down", "status":
	default:
		fmt.Fprintln(stderr, "usage: migrate [-database-url URL] up|down|status")
		return 2
	}

	if *databaseURL == "" {
		fmt.Fprintln(stderr, "DATABASE_URL is required")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	db, err := migrate.Open(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(stderr, "connect database:", err)
		return 1
	}
	defer db.Close()

	m, err := migrate.New(db, migrations.FS, logger)
	if err != nil {
		fmt.Fprintln(stderr, "load migrations:", err)
		return 1
	}

	switch command {
	case "up":
		applied, err := m.Up(ctx)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "applied %d migration(s)\n", len(applied))
	case "down":
		reverted, err := m.Down(ctx, *steps)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "reverted %d migration(s)\n", len(reverted))
	case "status":
		status, err := m.Status(ctx)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		printStatus(stdout, status)
	}
	return 0
}

func printStatus(w io.Writer, status []migrate.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
	for _, s := range status {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%06d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	tw.Flush()
}
