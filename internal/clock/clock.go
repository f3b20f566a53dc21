package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/streaks/internal/models"
)

// Clock is the single wall-clock date source shared by everything that needs
// to know what "today" is.
type Clock interface {
	Today() models.Date
}

// System reads the current date from the system clock in a fixed location.
type System struct {
	loc *time.Location
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// NewSystem returns a clock that reports dates in the named timezone.
func NewSystem(timezone string) (*System, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &System{loc: loc}, nil
}

func (c *System) Today() models.Date {
	return models.DateOf(time.Now().In(c.loc))
}

func (c *System) Location() *time.Location {
	return c.loc
}

// Fixed is a settable clock for tests.
//
// Thread-safety: all methods are safe for concurrent use.
type Fixed struct {
	mu    sync.Mutex
	today models.Date
}

func NewFixed(today models.Date) *Fixed {
	return &Fixed{today: today}
}

func (c *Fixed) Today() models.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

func (c *Fixed) Set(today models.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = today
}

// Advance moves the clock forward by n days.
func (c *Fixed) Advance(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = c.today.AddDays(n)
}
