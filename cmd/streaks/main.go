package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/clock"
	"github.com/julianstephens/streaks/internal/config"
	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile kong.ConfigFlag `help:"YAML config file." env:"STREAKS_CONFIG"`
	DB         string          `help:"SQLite or JSON file path, or a PostgreSQL connection string. PostgreSQL passwords must NOT be embedded here; use STREAKS_DB_CONNECTION, the OS keyring, or .pgpass instead." default:"${default_db}" env:"STREAKS_DB"`
	Server     string          `help:"Base URL of the streaks server used by the habit and tui commands." default:"${default_server}" env:"STREAKS_SERVER"`
	Timezone   string          `help:"IANA timezone that decides the current day." default:"Local" env:"STREAKS_TZ"`
	Debug      bool            `help:"Enable debug logging." env:"STREAKS_DEBUG"`

	Serve    cli.ServeCmd   `cmd:"" help:"Run the HTTP API server."`
	Init     cli.InitCmd    `cmd:"" help:"Initialize streaks storage."`
	Migrate  cli.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor   cli.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	DebugCmd cli.DebugCmd   `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Backup   cli.BackupCmd  `cmd:"" help:"Manage database backups."`
	Keyring  cli.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Habit    cli.HabitCmd   `cmd:"" help:"Manage habits on a running server."`
	Tui      cli.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
}

// Commands that only talk to the server or the keyring never open the store.
var storelessCommands = map[string]bool{
	"habit":   true,
	"tui":     true,
	"keyring": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit streak tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(config.YAML, constants.DefaultConfigFile),
		kong.Vars{
			"version":            constants.Version,
			"default_db":         constants.DefaultDBPath,
			"default_server":     constants.DefaultServerURL,
			"default_listen":     constants.DefaultListenAddr,
			"default_rate_limit": strconv.Itoa(constants.DefaultRateLimit),
			"default_rate_burst": strconv.Itoa(constants.DefaultRateBurst),
		},
	)

	command := strings.Fields(ctx.Command())[0]

	configDir, err := cli.ExpandPath(constants.DefaultConfigDir)
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Console:   command == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	clk, err := clock.NewSystem(CLI.Timezone)
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx := &cli.Context{
		Clock:     clk,
		ServerURL: CLI.Server,
	}

	if !storelessCommands[command] {
		dsn, secret := cli.ResolveDSN(CLI.DB)
		store, err := cli.OpenStore(dsn, secret)
		if err != nil {
			apperrors.Fatal(err)
		}
		appCtx.Store = store

		// Other commands manage the store lifecycle themselves.
		if command == "serve" {
			if err := store.Load(); err != nil {
				apperrors.Fatal(err)
			}
		}
	}

	err = ctx.Run(appCtx)
	if appCtx.Store != nil {
		if closeErr := appCtx.Store.Close(); closeErr != nil {
			logger.Warn("Failed to close store", "error", closeErr)
		}
	}
	if err != nil {
		apperrors.Fatal(err)
	}
}
