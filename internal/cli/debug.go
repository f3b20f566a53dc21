package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/streaks/internal/storage"
)

type DebugCmd struct {
	DBPath    *DebugDBPathCmd    `cmd:"" help:"Show database path."`
	DumpHabit *DebugDumpHabitCmd `cmd:"" help:"Dump a stored habit as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	output := map[string]string{
		"path": ctx.Store.GetConfigPath(),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	ctx.println(string(jsonBytes))
	return nil
}

// DebugDumpHabitCmd prints the record exactly as stored, before any day
// rollover is applied.
type DebugDumpHabitCmd struct {
	ID string `arg:"" help:"ID of the habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	habit, err := ctx.Store.GetHabit(context.Background(), cmd.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no habit found with ID: %s", cmd.ID)
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(habit, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal habit: %w", err)
	}

	ctx.println(string(jsonBytes))
	return nil
}
