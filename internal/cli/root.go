package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/streaks/internal/backup"
	"github.com/julianstephens/streaks/internal/client"
	"github.com/julianstephens/streaks/internal/clock"
	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/keyring"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/storage/postgres"
	"github.com/julianstephens/streaks/internal/storage/sqlite"
)

type Context struct {
	Store     storage.Provider
	Clock     clock.Clock
	ServerURL string
	Out       io.Writer
	In        io.Reader
}

func (c *Context) stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) stdin() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout(), format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.stdout(), args...)
}

// Client returns an API client for the configured server.
func (c *Context) Client() *client.Client {
	return client.New(c.serverURL())
}

func (c *Context) serverURL() string {
	if c.ServerURL == "" {
		return constants.DefaultServerURL
	}
	return c.ServerURL
}

// PerformAutomaticBackup creates an automatic backup of a file store and
// logs, rather than returns, any failure.
func (c *Context) PerformAutomaticBackup() {
	path, ok := fileStorePath(c.Store)
	if !ok {
		return
	}
	mgr := backup.NewManager(path)
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func fileStorePath(store storage.Provider) (string, bool) {
	if store == nil {
		return "", false
	}
	if _, ok := store.(*postgres.Store); ok {
		return "", false
	}
	return store.GetConfigPath(), true
}

// ResolveDSN picks the database to open. A --db value other than the default
// wins. Otherwise a connection string from STREAKS_DB_CONNECTION or the OS
// keyring selects PostgreSQL, and the default SQLite path is used last.
// secret reports whether dsn came from one of those credential sources.
func ResolveDSN(flagValue string) (dsn string, secret bool) {
	if flagValue != "" && flagValue != constants.DefaultDBPath {
		return flagValue, false
	}
	if conn := strings.TrimSpace(os.Getenv(constants.DBConnectionEnv)); conn != "" {
		return conn, true
	}
	conn, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		return conn, true
	case errors.Is(err, keyring.ErrNotFound):
	default:
		logger.Debug("Keyring lookup skipped", "error", err)
	}
	return constants.DefaultDBPath, false
}

// IsPostgres reports whether dsn is a PostgreSQL URL or key/value DSN.
func IsPostgres(dsn string) bool {
	return postgres.IsConnString(dsn) || strings.Contains(dsn, "host=")
}

// OpenStore constructs the store for dsn without connecting to it.
//
// A PostgreSQL connection string may only carry a password when it came from
// a credential source (allowPassword). On the command line, use
// STREAKS_DB_CONNECTION, the OS keyring or a .pgpass file instead. Paths
// ending in .json use the JSON document store, anything else is a SQLite file.
func OpenStore(dsn string, allowPassword bool) (storage.Provider, error) {
	if IsPostgres(dsn) {
		if _, err := postgres.ValidateConnString(dsn); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, err
			}
			if !allowPassword {
				return nil, fmt.Errorf("%w; use %s, '%s keyring set' or a .pgpass file", err, constants.DBConnectionEnv, constants.AppName)
			}
		}
		return postgres.New(dsn), nil
	}

	path, err := ExpandPath(dsn)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return storage.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
