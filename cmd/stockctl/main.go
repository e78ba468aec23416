package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/andresuchdata/stocksense/internal/app"
	"github.com/andresuchdata/stocksense/internal/config"
	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/repository/postgres"
	"github.com/andresuchdata/stocksense/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

const appKey = "app"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newUserIDFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "user-id",
		Usage:    "User the command acts on behalf of",
		Required: true,
		EnvVars:  []string{"STOCKSENSE_USER_ID"},
	}
}

func newSuggestionIDFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "id",
		Usage:    "Reorder suggestion ID",
		Required: true,
	}
}

func openDB(c *cli.Context) (*postgres.DB, error) {
	url := c.String("db-url")
	if url == "" {
		url = config.Load().Database.URL()
	}
	return postgres.Open("pgx", url)
}

func initApp(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}

	a, err := app.New(config.Load(), db)
	if err != nil {
		db.Close()
		return err
	}

	c.App.Metadata[appKey] = a
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.App.Metadata[appKey].(*app.App); ok {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.App.Metadata[appKey].(*app.App)
}

func callerFrom(c *cli.Context) domain.Caller {
	id := c.Int64("user-id")
	return domain.Caller{UserID: id, Subject: fmt.Sprintf("user_%d", id)}
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	logger.SetLevel(config.Load().App.LogLevel)

	domainFlags := func(extra ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{newDBURLFlag(), newUserIDFlag()}, extra...)
	}

	cliApp := &cli.App{
		Name:     "stockctl",
		Usage:    "Run forecasting and reorder jobs against the stocksense database",
		Metadata: map[string]interface{}{},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Flags:  []cli.Flag{newDBURLFlag()},
						Action: migrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back all migrations",
						Flags:  []cli.Flag{newDBURLFlag()},
						Action: migrateDown,
					},
					{
						Name:   "version",
						Usage:  "Print the current schema version",
						Flags:  []cli.Flag{newDBURLFlag()},
						Action: migrateVersion,
					},
				},
			},
			{
				Name:  "seed",
				Usage: "Import products and sales history from CSV or XLSX files",
				Flags: domainFlags(
					&cli.StringFlag{Name: "products", Usage: "Products CSV or XLSX (sku,name,current_stock,reorder_point,...)", EnvVars: []string{"SEED_PRODUCTS_FILE"}},
					&cli.StringFlag{Name: "sales", Usage: "Sales CSV or XLSX (sku,quantity,unit_price,sale_date,channel)", EnvVars: []string{"SEED_SALES_FILE"}},
				),
				Before: initApp,
				After:  closeApp,
				Action: runSeed,
			},
			{
				Name:   "forecast",
				Usage:  "Generate next-day demand forecasts for every active product",
				Flags:  domainFlags(),
				Before: initApp,
				After:  closeApp,
				Action: runForecast,
			},
			{
				Name:   "reorder",
				Usage:  "Evaluate products and refresh pending reorder suggestions",
				Flags:  domainFlags(),
				Before: initApp,
				After:  closeApp,
				Action: runReorder,
			},
			{
				Name:  "suggestions",
				Usage: "List reorder suggestions, most urgent first",
				Flags: domainFlags(
					&cli.StringFlag{Name: "status", Usage: "pending, approved or rejected"},
					&cli.StringFlag{Name: "urgency", Usage: "critical, high, medium or low"},
					&cli.IntFlag{Name: "limit", Value: 50},
				),
				Before: initApp,
				After:  closeApp,
				Action: listSuggestions,
			},
			{
				Name:  "approve",
				Usage: "Approve a pending suggestion and add its quantity to stock",
				Flags: domainFlags(
					newSuggestionIDFlag(),
					&cli.StringFlag{Name: "notes", Usage: "Optional decision notes"},
				),
				Before: initApp,
				After:  closeApp,
				Action: func(c *cli.Context) error { return updateStatus(c, domain.StatusApproved) },
			},
			{
				Name:  "reject",
				Usage: "Reject a pending suggestion",
				Flags: domainFlags(
					newSuggestionIDFlag(),
					&cli.StringFlag{Name: "notes", Usage: "Optional decision notes"},
				),
				Before: initApp,
				After:  closeApp,
				Action: func(c *cli.Context) error { return updateStatus(c, domain.StatusRejected) },
			},
			{
				Name:   "export",
				Usage:  "Write pending suggestions to CSV and upload when storage is enabled",
				Flags:  domainFlags(),
				Before: initApp,
				After:  closeApp,
				Action: runExport,
			},
			{
				Name:   "runs",
				Usage:  "List recent pipeline runs",
				Flags:  domainFlags(&cli.IntFlag{Name: "limit", Value: 20}),
				Before: initApp,
				After:  closeApp,
				Action: listRuns,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("stockctl failed")
	}
}
