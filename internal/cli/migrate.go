package cli

import (
	"fmt"

	"github.com/julianstephens/streaks/internal/logger"
)

// migrator is implemented by stores with a versioned schema.
type migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		ctx.println("This store has no schema migrations.")
		return nil
	}

	applied, err := m.Migrate(func(msg string) {
		logger.Info(msg)
		ctx.println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	current, _, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if applied == 0 {
		ctx.printf("Schema is up to date (version %d).\n", current)
		return nil
	}
	ctx.printf("✓ Applied %d migration(s), schema is now at version %d.\n", applied, current)
	return nil
}
