package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lexibridge/internal/cli"
	"lexibridge/internal/history"
	"lexibridge/internal/secrets"
	"lexibridge/internal/supabase"
)

func runHistory(args []string) int {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub = strings.ToLower(strings.TrimSpace(args[0]))
		args = args[1:]
	}

	switch sub {
	case "list":
		return runHistoryList(args)
	case "clear":
		return runHistoryClear(args)
	case "sync":
		return runHistorySync(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown history subcommand: %s\n", sub)
		fmt.Fprintln(os.Stderr, "usage: lexibridge history [list|clear|sync] [flags]")
		return 2
	}
}

func runHistoryList(args []string) int {
	fs := flag.NewFlagSet("history list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 0, "Show at most this many records (0 = all)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := rt.historyDB.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load history: %v\n", err)
		return 1
	}
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}

	if len(records) == 0 {
		fmt.Println("History is empty.")
		return 0
	}
	for i, record := range records {
		fmt.Printf("%3d  %s  %s -> %s  (%s->%s, x%d)\n",
			i,
			record.Timestamp.Format("2006-01-02 15:04"),
			record.Original,
			record.Translation,
			record.SourceLang,
			record.TargetLang,
			record.Count,
		)
	}
	return 0
}

func runHistoryClear(args []string) int {
	fs := flag.NewFlagSet("history clear", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rt.historyDB.Clear(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to clear history: %v\n", err)
		return 1
	}
	fmt.Println("History cleared.")
	return 0
}

func runHistorySync(args []string) int {
	fs := flag.NewFlagSet("history sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall sync timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	if rt.cfg.SupabaseURL == "" {
		fmt.Fprintln(os.Stderr, "SUPABASE_URL is not configured; nothing to sync to.")
		return 1
	}
	remote, err := supabase.NewClient(rt.cfg.SupabaseURL, rt.cfg.SupabaseAnonKey, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	token := rt.cfg.SupabaseToken
	syncer, err := history.NewSyncer(rt.historyDB, remote, func() string { return token }, rt.cfg.SyncSchedule, rt.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	before, err := rt.historyDB.LocalOnly(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load pending records: %v\n", err)
		return 1
	}
	if len(before) == 0 {
		fmt.Println("Nothing to sync.")
		return 0
	}
	if err := syncer.RunOnce(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		return 1
	}
	fmt.Printf("Synced %d record(s).\n", len(before))
	return 0
}

func runGenKey(args []string) int {
	fs := flag.NewFlagSet("genkey", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	key, err := secrets.GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		return 1
	}
	fmt.Println(key)
	return 0
}
