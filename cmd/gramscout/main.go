// Package main is the CLI entry point for gramscout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"gramscout/internal/config"
	"gramscout/internal/fetch"
	"gramscout/internal/igclient"
	"gramscout/internal/jobs"
	"gramscout/internal/journal"
	"gramscout/internal/logging"
	"gramscout/internal/metrics"
	"gramscout/internal/report"
	"gramscout/internal/store/postgres"
	"gramscout/internal/theme"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "gramscout",
		Usage:   "Fetch public profile metrics and persist them to Postgres",
		Version: version,
		Commands: []*cli.Command{
			initCommand(),
			scrapeCommand(),
			reportCommand(),
			versionCommand(),
		},
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML configuration file",
		Value:   "./gramscout.yaml",
		Sources: cli.EnvVars("GRAMSCOUT_CONFIG"),
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default config file",
		Flags: []cli.Flag{configFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			theme.PrintBanner()
			fmt.Println("Config written to:", abs)
			return nil
		},
	}
}

func scrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Fetch the configured profiles and persist them",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:  "username",
				Usage: "Override the configured target list (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "incremental",
				Usage:   "Persist each profile as soon as it is fetched",
				Sources: cli.EnvVars("GRAMSCOUT_INCREMENTAL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
			metrics.StartServer(cfg.Metrics.Addr)

			usernames := cfg.Scrape.Usernames
			if v := cmd.StringSlice("username"); len(v) > 0 {
				usernames = v
			}
			incremental := cfg.Scrape.Incremental
			if cmd.Bool("incremental") {
				incremental = true
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := postgres.Open(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()

			opts := jobs.Options{Incremental: incremental}
			if cfg.Journal.Path != "" {
				jnl, err := journal.Open(cfg.Journal.Path)
				if err != nil {
					return fmt.Errorf("opening journal: %w", err)
				}
				defer jnl.Close()
				opts.Journal = jnl
			}

			client := igclient.NewHTTPClient(cfg.Scrape.UserAgent, cfg.Scrape.Timeout())
			fetcher := fetch.New(client, cfg.Scrape.RequestDelay())

			res, err := jobs.RunScrape(ctx, fetcher, store, usernames, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Scraped %d/%d profiles, persisted %d\n", res.Succeeded, res.Total, res.Persisted)
			return nil
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Show persisted profiles and the last run",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := postgres.Open(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()

			records, err := store.ListAll(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-20s %-15s %-12s %-10s %s\n", "Username", "Followers", "Following", "Posts", "Engagement")
			for _, r := range records {
				fmt.Printf("%-20s %-15d %-12d %-10d %.2f\n", r.Username, r.Followers, r.Following, r.PostsCount, r.Engagement)
			}
			s := report.Summarize(records)
			fmt.Printf("\nProfiles: %d\nTotal followers: %d\nTotal posts: %d\n", s.Profiles, s.TotalFollowers, s.TotalPosts)
			if s.MostFollowed != "" {
				fmt.Printf("Most followed: %s\nMost posts: %s\n", s.MostFollowed, s.MostPosts)
			}

			if cfg.Journal.Path != "" {
				jnl, err := journal.Open(cfg.Journal.Path)
				if err != nil {
					return nil
				}
				defer jnl.Close()
				if run, ok, err := jnl.LastRun(ctx); err == nil && ok {
					fmt.Printf("\nLast run %s: %d/%d fetched, %d persisted (started %s)\n",
						run.ID, run.Succeeded, run.Total, run.Persisted, run.StartedAt.Format("2006-01-02 15:04:05"))
				}
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Printf("gramscout %s\n", version)
			return nil
		},
	}
}
