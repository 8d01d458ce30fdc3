package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/andresuchdata/salesdash/backend-go/internal/app"
	"github.com/andresuchdata/salesdash/backend-go/internal/config"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salesdash/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Postgres connection string for the ingest log",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newPartitionFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "partition",
		Aliases:  []string{"p"},
		Usage:    "Dataset partition (sales or target)",
		Required: true,
	}
}

func partitionOf(c *cli.Context) (domain.Partition, error) {
	return domain.ParsePartition(c.String("partition"))
}

// openDB dials Postgres through pgx for the ingest log.
func openDB(ctx context.Context, url string) (*postgres.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return postgres.Wrap(sqlx.NewDb(db, "pgx")), nil
}

// withApp builds the application for one command and closes it afterwards.
func withApp(c *cli.Context, fn func(a *app.App) error) error {
	var opts []app.Option
	if url := c.String("db-url"); url != "" {
		db, err := openDB(c.Context, url)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithDB(db))
	}

	a, err := app.New(c.Context, config.Load(), opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func main() {
	cliApp := &cli.App{
		Name:  "salesctl",
		Usage: "Operate the sales dataset: ingest, pivot, export and maintenance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
		},
		Before: func(c *cli.Context) error {
			cfg := config.Load()
			format := cfg.Log.Format
			if format == "" {
				format = "console"
			}
			logger.Init(c.String("log-level"), format)
			return nil
		},
		Commands: []*cli.Command{
			ingestCommand(),
			pivotCommand(),
			exportCommand(),
			partsCommand(),
			resetCommand(),
			restoreCommand(),
			calendarCommand(),
			runsCommand(),
			migrateCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
