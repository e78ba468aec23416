package main

import (
	"fmt"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/repository/postgres"
	"github.com/urfave/cli/v2"
)

func withMigrator(c *cli.Context, fn func(m *postgres.Migrator) error) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := postgres.NewMigrator(db.DB.DB)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func migrateUp(c *cli.Context) error {
	return withMigrator(c, func(m *postgres.Migrator) error { return m.Up() })
}

func migrateDown(c *cli.Context) error {
	return withMigrator(c, func(m *postgres.Migrator) error { return m.Down() })
}

func migrateVersion(c *cli.Context) error {
	return withMigrator(c, func(m *postgres.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", version, dirty)
		return nil
	})
}

func runForecast(c *cli.Context) error {
	result, err := appFrom(c).ForecastService.GenerateForecasts(c.Context, callerFrom(c))
	if result != nil {
		if perr := printJSON(c, result); perr != nil {
			return perr
		}
	}
	return err
}

func runReorder(c *cli.Context) error {
	result, err := appFrom(c).ReorderService.GenerateReorderSuggestions(c.Context, callerFrom(c))
	if result != nil {
		if perr := printJSON(c, result); perr != nil {
			return perr
		}
	}
	return err
}

func listSuggestions(c *cli.Context) error {
	var (
		status  domain.SuggestionStatus
		urgency domain.Urgency
		ok      bool
	)
	if raw := c.String("status"); raw != "" {
		if status, ok = domain.ParseSuggestionStatus(raw); !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
	}
	if raw := c.String("urgency"); raw != "" {
		if urgency, ok = domain.ParseUrgency(raw); !ok {
			return fmt.Errorf("unknown urgency %q", raw)
		}
	}

	suggestions, err := appFrom(c).ReorderService.ListSuggestions(c.Context, callerFrom(c), status, urgency, c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(c, suggestions)
}

func updateStatus(c *cli.Context, status domain.SuggestionStatus) error {
	var notes *string
	if c.IsSet("notes") {
		n := c.String("notes")
		notes = &n
	}

	result, err := appFrom(c).ReorderService.UpdateSuggestionStatus(c.Context, callerFrom(c), c.Int64("id"), status, notes)
	if err != nil {
		return err
	}
	return printJSON(c, result)
}

func runExport(c *cli.Context) error {
	result, err := appFrom(c).ExportService.ExportPending(c.Context, callerFrom(c))
	if err != nil {
		return err
	}
	return printJSON(c, result)
}

func listRuns(c *cli.Context) error {
	runs, err := appFrom(c).Runs.ListRecentRuns(c.Context, c.Int64("user-id"), c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(c, runs)
}
