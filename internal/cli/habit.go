package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/julianstephens/streaks/internal/client"
	"github.com/julianstephens/streaks/internal/models"
)

// HabitCmd talks to a running server. Nothing here opens the store.
type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits." default:"1"`
	Toggle HabitToggleCmd `cmd:"" help:"Mark a habit done today, or undo today's completion."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
}

type HabitAddCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	h, err := ctx.Client().Create(context.Background(), c.Name)
	if err != nil {
		return describeAPIError(err)
	}
	ctx.printf("Added habit: %s (%s)\n", h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	IDs bool `help:"Show habit IDs."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits, err := ctx.Client().List(context.Background())
	if err != nil {
		return describeAPIError(err)
	}

	if len(habits) == 0 {
		ctx.println("No habits found.")
		return nil
	}

	w := tabwriter.NewWriter(ctx.stdout(), 0, 0, 2, ' ', 0)
	for _, h := range habits {
		if c.IDs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark(h), h.Name, formatStreak(h.Streak), h.ID)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\n", mark(h), h.Name, formatStreak(h.Streak))
		}
	}
	return w.Flush()
}

type HabitToggleCmd struct {
	ID string `arg:"" help:"Habit ID."`
}

func (c *HabitToggleCmd) Run(ctx *Context) error {
	h, err := ctx.Client().Toggle(context.Background(), c.ID)
	if err != nil {
		return describeAPIError(err)
	}
	if h.CompletedToday {
		ctx.printf("✓ %s done today, %s\n", h.Name, formatStreak(h.Streak))
	} else {
		ctx.printf("○ %s undone, %s\n", h.Name, formatStreak(h.Streak))
	}
	return nil
}

type HabitDeleteCmd struct {
	ID string `arg:"" help:"Habit ID."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Client().Remove(context.Background(), c.ID); err != nil {
		return describeAPIError(err)
	}
	ctx.printf("Deleted habit: %s\n", c.ID)
	return nil
}

func mark(h models.Habit) string {
	if h.CompletedToday {
		return "✓"
	}
	return "○"
}

func formatStreak(n int) string {
	if n == 1 {
		return "1 day streak"
	}
	return fmt.Sprintf("%d day streak", n)
}

// describeAPIError rewrites server responses into CLI-facing messages.
func describeAPIError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	if apiErr.NotFound() {
		return fmt.Errorf("habit not found")
	}
	if apiErr.Message != "" {
		return fmt.Errorf("%s", apiErr.Message)
	}
	return apiErr
}
