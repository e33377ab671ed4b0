package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wiregate/internal/auth"
	"github.com/vovakirdan/wiregate/internal/command"
	"github.com/vovakirdan/wiregate/internal/command/builtin"
	"github.com/vovakirdan/wiregate/internal/config"
	"github.com/vovakirdan/wiregate/internal/console"
	"github.com/vovakirdan/wiregate/internal/core"
	"github.com/vovakirdan/wiregate/internal/store"
	"github.com/vovakirdan/wiregate/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wiregate/internal/transport/http"
	"github.com/vovakirdan/wiregate/internal/transport/irc"
)

const tokenTTL = 24 * time.Hour

// App wires together core and transport layers.
type App struct {
	gateway         *core.Gateway
	irc             *irc.Server
	server          *stdhttp.Server
	console         *console.Console
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. The console
// reads in and writes out; it is skipped when disabled in cfg.
func New(cfg config.Config, logger *zerolog.Logger, in io.Reader, out io.Writer) (*App, error) {
	var st store.Store
	if cfg.DatabasePath != "" {
		sqliteStore, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st = sqliteStore
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
	} else {
		logger.Warn().Msg("database_path is empty, running without persistence")
	}

	var registry *command.Registry
	registry, err := command.NewRegistry(st, logger, builtin.Specs(func() []command.Spec {
		return registry.Specs()
	})...)
	if err != nil {
		closeStore(st, logger)
		return nil, fmt.Errorf("build command registry: %w", err)
	}

	gw := core.NewGateway(registry, st, core.Options{
		ServerName:    cfg.ServerName,
		CommandPrefix: cfg.CommandPrefix,
	}, logger)

	ircServer := irc.NewServer(gw, irc.Options{
		Addr:              cfg.IRCAddr,
		MaxLineBytes:      cfg.MaxLineBytes,
		CommandsPerMinute: cfg.CommandsPerMinute,
	}, logger)

	a := &App{
		gateway:         gw,
		irc:             ircServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	if cfg.HTTPAddr != "" {
		authService := auth.NewService(cfg.AdminPasswordHash, &auth.JWTConfig{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
			TTL:    tokenTTL,
		})
		a.server = transporthttp.NewServer(gw, authService, registry, cfg, logger)
	}

	if cfg.ConsoleEnabled {
		a.console = console.New(gw, in, out, ircServer.Ready(), console.Options{
			Channel:     cfg.ConsoleChannel,
			SettleDelay: cfg.ConsoleSettleDelay,
		}, logger)
	}

	return a, nil
}

// Ready is closed once the line protocol listener is bound.
func (a *App) Ready() <-chan struct{} {
	return a.irc.Ready()
}

// IRCAddr returns the bound line protocol address, nil before Ready.
func (a *App) IRCAddr() net.Addr {
	return a.irc.Addr()
}

// Gateway exposes the shared gateway.
func (a *App) Gateway() *core.Gateway {
	return a.gateway
}

// Run starts every component and blocks until context cancellation or the
// first fatal error. Resources are released before it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.irc.Serve(ctx)
	})

	if a.server != nil {
		a.server.BaseContext = func(net.Listener) context.Context { return ctx }

		g.Go(func() error {
			a.log.Info().Str("addr", a.server.Addr).Msg("http server started")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return a.server.Shutdown(shutdownCtx)
		})
	}

	if a.console != nil {
		g.Go(func() error {
			return a.console.Run(ctx)
		})
	}

	return g.Wait()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	closeStore(a.store, a.log)
}

func closeStore(st store.Store, logger *zerolog.Logger) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close store")
	} else {
		logger.Info().Msg("store closed")
	}
}
