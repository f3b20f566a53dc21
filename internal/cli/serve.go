package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/server"
	"github.com/julianstephens/streaks/internal/service"
)

type ServeCmd struct {
	Listen         string   `help:"Address to listen on." default:"${default_listen}" env:"STREAKS_LISTEN"`
	AllowedOrigins []string `help:"Origins allowed by CORS." default:"*" env:"STREAKS_ALLOWED_ORIGINS"`
	RateLimit      float64  `help:"Requests per second allowed on the habits API (0 disables)." default:"${default_rate_limit}" env:"STREAKS_RATE_LIMIT"`
	RateBurst      int      `help:"Burst size for the rate limiter." default:"${default_rate_burst}" env:"STREAKS_RATE_BURST"`
	NoBackup       bool     `help:"Skip the automatic backup taken at startup."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.serve(runCtx, ctx)
}

func (c *ServeCmd) config() server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = c.Listen
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.RateLimit = c.RateLimit
	cfg.RateBurst = c.RateBurst
	return cfg
}

func (c *ServeCmd) serve(runCtx context.Context, ctx *Context) error {
	if ctx.Store == nil {
		return fmt.Errorf("no store configured")
	}
	if !c.NoBackup {
		ctx.PerformAutomaticBackup()
	}

	svc := service.New(ctx.Store, ctx.Clock)
	srv := server.New(svc, c.config())

	logger.Info("Starting server", "addr", c.Listen, "store", ctx.Store.GetConfigPath())
	ctx.printf("Listening on %s\n", c.Listen)

	runErr := srv.Run(runCtx)

	if err := ctx.Store.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("server error: %w", runErr)
	}
	logger.Info("Server stopped")
	return nil
}
