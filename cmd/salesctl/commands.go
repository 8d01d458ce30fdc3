package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/salesdash/backend-go/internal/app"
	"github.com/andresuchdata/salesdash/backend-go/internal/config"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/drive"
	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/andresuchdata/salesdash/backend-go/internal/pipeline"
	"github.com/andresuchdata/salesdash/backend-go/internal/repository"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Append spreadsheet files (csv, xlsx, xls) to a partition",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			newPartitionFlag(),
			newDBURLFlag(false),
			&cli.StringSliceFlag{
				Name:  "sheet",
				Usage: "Only ingest these workbook sheets (default: every sheet)",
			},
			&cli.BoolFlag{
				Name:    "typed",
				Usage:   "Parse value, year, month and week at ingest and store them next to the text",
				EnvVars: []string{"DATASET_TYPED_PASSTHROUGH"},
			},
			&cli.StringFlag{
				Name:    "drive-folder",
				Usage:   "Google Drive folder id to ingest instead of local files",
				EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
			},
			&cli.StringFlag{
				Name:  "drive-path",
				Usage: "Google Drive folder path, resolved from the drive root",
			},
		},
		Action: runIngest,
	}
}

func runIngest(c *cli.Context) error {
	partition, err := partitionOf(c)
	if err != nil {
		return err
	}

	var jobs []pipeline.Job
	if c.NArg() > 0 {
		for _, path := range c.Args().Slice() {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			jobs = append(jobs, pipeline.Job{
				Partition: partition,
				Filename:  filepath.Base(path),
				Data:      data,
				Sheets:    c.StringSlice("sheet"),
				Typed:     c.Bool("typed"),
			})
		}
	} else if c.String("drive-folder") != "" || c.String("drive-path") != "" {
		jobs, err = driveJobs(c, partition)
		if err != nil {
			return err
		}
	} else {
		return cli.Exit("provide files or --drive-folder/--drive-path", 2)
	}

	if len(jobs) == 0 {
		return cli.Exit("no spreadsheet files found", 1)
	}

	return withApp(c, func(a *app.App) error {
		results, err := a.Datasets.Ingest(c.Context, jobs)
		printResults(c.App.Writer, results)
		if err != nil {
			return err
		}
		if failed := pipeline.Failed(results); failed > 0 {
			return cli.Exit(fmt.Sprintf("%d of %d ingests failed", failed, len(results)), 1)
		}
		return nil
	})
}

func driveJobs(c *cli.Context, partition domain.Partition) ([]pipeline.Job, error) {
	cfg := config.Load()
	if cfg.Drive.CredentialsJSON == "" {
		return nil, cli.Exit("GOOGLE_DRIVE_CREDENTIALS_JSON is required for drive ingest", 2)
	}
	svc, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
	if err != nil {
		return nil, err
	}

	folderID := c.String("drive-folder")
	if path := c.String("drive-path"); path != "" {
		folderID, err = svc.FindFolderByPath(c.Context, path)
		if err != nil {
			return nil, err
		}
	}
	jobs, err := drive.NewDownloader(svc).Jobs(c.Context, folderID, partition)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].Typed = c.Bool("typed")
	}
	return jobs, nil
}

func printResults(w io.Writer, results []pipeline.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSHEET\tSTATUS\tROWS\tISSUES\tPART\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Filename, r.Sheet, r.Status, r.Rows, r.Issues, r.PartID, r.Error)
	}
	tw.Flush()
}

func pivotCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "closing", Usage: "Closing month (YYYY-MM)", Required: true},
		&cli.StringFlag{Name: "historical", Usage: "Historical month (YYYY-MM)", Required: true},
		&cli.StringFlag{Name: "total-averages", Usage: "Grand total averages: sum or mean", Value: string(domain.TotalAverageSum)},
		&cli.StringFlag{Name: "out", Usage: "Write the pivot to this file (.csv or .parquet) instead of stdout"},
	}
	for _, d := range domain.Dimensions {
		flags = append(flags, &cli.StringSliceFlag{
			Name:  strings.ReplaceAll(string(d), "_", "-"),
			Usage: fmt.Sprintf("Filter on %s", d),
		})
	}

	return &cli.Command{
		Name:   "pivot",
		Usage:  "Build the SKU pivot for a closing and historical month",
		Flags:  flags,
		Action: runPivot,
	}
}

func runPivot(c *cli.Context) error {
	closing, err := domain.ParseYearMonth(c.String("closing"))
	if err != nil {
		return err
	}
	hist, err := domain.ParseYearMonth(c.String("historical"))
	if err != nil {
		return err
	}
	req := domain.PivotRequest{
		Period:        domain.PeriodSelection{Closing: closing, Historical: hist},
		TotalAverages: domain.ParseTotalAverageMode(c.String("total-averages")),
	}
	for _, d := range domain.Dimensions {
		if values := c.StringSlice(strings.ReplaceAll(string(d), "_", "-")); len(values) > 0 {
			req.Filters = req.Filters.With(d, values...)
		}
	}

	return withApp(c, func(a *app.App) error {
		if out := c.String("out"); out != "" {
			format, err := formatFromPath(out)
			if err != nil {
				return err
			}
			return writeFile(out, func(w io.Writer) error {
				return a.Pivots.Export(c.Context, req, format, w)
			})
		}

		table, err := a.Pivots.Aggregate(c.Context, req)
		if err != nil {
			return err
		}
		if table.Empty() {
			fmt.Fprintln(c.App.Writer, "no SKU matched the filters")
			return nil
		}
		return export.WriteCSV(c.App.Writer, export.FromPivot(table))
	})
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every stored record of a partition",
		Flags: []cli.Flag{
			newPartitionFlag(),
			&cli.StringFlag{Name: "out", Usage: "Output file (.csv or .parquet)", Required: true},
		},
		Action: func(c *cli.Context) error {
			partition, err := partitionOf(c)
			if err != nil {
				return err
			}
			out := c.String("out")
			format, err := formatFromPath(out)
			if err != nil {
				return err
			}
			return withApp(c, func(a *app.App) error {
				return writeFile(out, func(w io.Writer) error {
					return a.Datasets.Export(c.Context, partition, format, w)
				})
			})
		},
	}
}

func partsCommand() *cli.Command {
	return &cli.Command{
		Name:  "parts",
		Usage: "List the parts of a partition",
		Flags: []cli.Flag{newPartitionFlag()},
		Action: func(c *cli.Context) error {
			partition, err := partitionOf(c)
			if err != nil {
				return err
			}
			return withApp(c, func(a *app.App) error {
				parts, err := a.Datasets.Parts(partition)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PART\tSIZE\tCREATED")
				for _, p := range parts {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", p.ID, p.Size, p.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete every part of a partition",
		Flags: []cli.Flag{
			newPartitionFlag(),
			newDBURLFlag(false),
			&cli.BoolFlag{Name: "yes", Usage: "Confirm the deletion"},
		},
		Action: func(c *cli.Context) error {
			partition, err := partitionOf(c)
			if err != nil {
				return err
			}
			if !c.Bool("yes") {
				return cli.Exit("refusing to reset without --yes", 2)
			}
			return withApp(c, func(a *app.App) error {
				if err := a.Datasets.Reset(c.Context, partition); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "partition %s reset\n", partition)
				return nil
			})
		},
	}
}

func restoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Download mirrored parts missing from the local dataset",
		Flags: []cli.Flag{newPartitionFlag()},
		Action: func(c *cli.Context) error {
			partition, err := partitionOf(c)
			if err != nil {
				return err
			}
			return withApp(c, func(a *app.App) error {
				n, err := a.Datasets.Restore(c.Context, partition)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "restored %d parts into %s\n", n, partition)
				return nil
			})
		},
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Generate the business calendar artifact and print one year",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "year", Usage: "Year to print (0 prints nothing)"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app.App) error {
				rng := a.Calendar.Range()
				fmt.Fprintf(c.App.Writer, "calendar %d-%d: %d weeks\n", rng.Start, rng.End, len(a.Calendar.Entries()))

				year := c.Int("year")
				if year == 0 {
					return nil
				}
				entries, err := a.Pivots.Calendar(year)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MONDAY\tISO_WEEK\tISO_YEAR\tMONTH\tWEEK_IN_MONTH")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
						e.Monday.Format("2006-01-02"), e.ISOWeek, e.ISOYear, e.ISOMonth, e.WeekInMonth)
				}
				return tw.Flush()
			})
		},
	}
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recent ingest runs of a partition",
		Flags: []cli.Flag{
			newPartitionFlag(),
			newDBURLFlag(true),
			&cli.IntFlag{Name: "limit", Usage: "Maximum runs to list", Value: 50},
			&cli.StringFlag{Name: "status", Usage: "Only list runs with this status (queued, processing, completed, failed)"},
		},
		Action: func(c *cli.Context) error {
			partition, err := partitionOf(c)
			if err != nil {
				return err
			}
			var want domain.IngestStatus
			if s := c.String("status"); s != "" {
				status, ok := domain.ParseIngestStatus(s)
				if !ok {
					return cli.Exit(fmt.Sprintf("unknown status %q", s), 2)
				}
				want = status
			}

			db, err := openDB(c.Context, c.String("db-url"))
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := repository.NewIngestRunRepository(db).ListRuns(c.Context, partition, c.Int("limit"))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tSHEET\tSTATUS\tROWS\tPART\tSTARTED")
			for _, r := range runs {
				if want != "" && r.Status != want {
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
					r.ID, r.SourceFile, r.SourceSheet, domain.IngestStatusLabel(r.Status),
					r.Rows, r.PartID, r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the ingest log schema",
		Flags: []cli.Flag{newDBURLFlag(true)},
		Action: func(c *cli.Context) error {
			db, err := openDB(c.Context, c.String("db-url"))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.NewIngestRunRepository(db).EnsureSchema(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "ingest_runs schema ready")
			return nil
		},
	}
}

func formatFromPath(path string) (export.Format, error) {
	return export.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// writeFile renders into path, removing the file when rendering fails.
func writeFile(path string, render func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
