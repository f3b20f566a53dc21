package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/streaks/internal/backup"
	"github.com/julianstephens/streaks/internal/constants"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	report := func(name string, err error) {
		if err != nil {
			ctx.printf("❌ %s: FAIL\n", name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
			return
		}
		ctx.printf("✓ %s: OK\n", name)
	}

	// Load also validates the schema version, so the remaining store checks
	// only run against a reachable, current store.
	dbErr := ctx.Store.Load()
	report("Database reachable", dbErr)

	if dbErr == nil {
		report("Schema version", checkSchemaVersion(ctx))
		report("Habit integrity", checkHabits(ctx))
	} else {
		ctx.println("⊘ Schema version: SKIPPED (database not reachable)")
		ctx.println("⊘ Habit integrity: SKIPPED (database not reachable)")
	}

	if err := checkBackupsPresent(ctx); err != nil {
		ctx.println("⚠ Backups present: WARNING")
		ctx.printf("   %v\n", err)
	} else {
		ctx.println("✓ Backups present: OK")
	}

	report("Clock/timezone", checkClock(ctx))

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.println("All diagnostics passed!")
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current != latest {
		return fmt.Errorf("schema version %d does not match expected version %d", current, latest)
	}
	return nil
}

func checkHabits(ctx *Context) error {
	habits, err := ctx.Store.ListHabits(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}

	today := ctx.Clock.Today()
	seen := make(map[string]bool, len(habits))
	for _, h := range habits {
		if seen[h.ID] {
			return fmt.Errorf("duplicate habit ID found: %s", h.ID)
		}
		seen[h.ID] = true
		if err := h.Validate(today); err != nil {
			return err
		}
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	path, ok := fileStorePath(ctx.Store)
	if !ok {
		return fmt.Errorf("backups are not managed for PostgreSQL; use pg_dump")
	}
	backups, err := backup.NewManager(path).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkClock(ctx *Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	today := ctx.Clock.Today()
	local := now.Format(constants.DateFormat)
	ctx.printf("   Today is %s (system date %s)\n", today, local)

	// The configured timezone may legitimately differ from the system's by a day.
	delta := today.AddDays(-1).String()
	ahead := today.AddDays(1).String()
	if today.String() != local && delta != local && ahead != local {
		return fmt.Errorf("configured clock date %s is more than a day from system date %s", today, local)
	}
	return nil
}
