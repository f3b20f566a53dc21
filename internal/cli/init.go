package cli

import (
	"fmt"
	"os"
)

type InitCmd struct {
	Force bool `help:"Delete an existing database file before initializing."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		if err := c.removeExisting(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.printf("Initialized streaks storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

func (c *InitCmd) removeExisting(ctx *Context) error {
	path, ok := fileStorePath(ctx.Store)
	if !ok {
		return fmt.Errorf("--force is only supported for file-based stores")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.printf("Deleted existing database at: %s\n", path)
	return nil
}
