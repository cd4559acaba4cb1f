package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/cli/config"
	"github.com/yndnr/payauth-go/internal/cli/connection"
	"github.com/yndnr/payauth-go/internal/core/service"
	"github.com/yndnr/payauth-go/internal/core/session"
	"github.com/yndnr/payauth-go/internal/infra/buildinfo"
	"github.com/yndnr/payauth-go/internal/infra/shutdown"
	"github.com/yndnr/payauth-go/internal/infra/tlsroots"
	"github.com/yndnr/payauth-go/internal/storage"
	"github.com/yndnr/payauth-go/internal/telemetry/logger"
	"github.com/yndnr/payauth-go/internal/telemetry/metric"
)

const (
	runtimeKey      = "runtime"
	shutdownTimeout = 5 * time.Second
)

var errNoRuntime = errors.New("command runtime not initialised")

// Runtime holds the process-wide state shared by all commands.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Logger     logger.Logger
	Metrics    *metric.Registry

	Tokens    *storage.TokenStore
	Client    *connection.HTTPClient
	Auth      *service.AuthService
	Passwords *service.PasswordRecoveryService
	Users     *service.UsersService
	Address   *service.AddressService
	Session   *session.Store

	shutdown *shutdown.Handler

	buildOnce sync.Once
	buildErr  error

	bootOnce sync.Once
	bootErr  error

	// shell is set while the interactive shell runs commands.
	shell bool
}

func newRuntime(cfg *config.CLIConfig, path string, log logger.Logger) *Runtime {
	rt := &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Logger:     log,
		Metrics:    metric.NewRegistry(),
		shutdown:   shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log)),
	}
	// Address lookups need neither the token store nor the backend.
	rt.Address = service.NewAddressService(
		service.WithEndpoint(cfg.Address.Endpoint),
		service.WithRateLimit(cfg.Address.Rate, cfg.Address.Burst),
		service.WithAddressMetrics(rt.Metrics),
		service.WithAddressLogger(log),
		service.WithAddressUserAgent(buildinfo.UserAgent()),
	)
	return rt
}

// Services opens the token store and builds the backend clients. It does
// not contact the backend.
func (rt *Runtime) Services() error {
	rt.buildOnce.Do(func() {
		rt.buildErr = rt.build()
	})
	return rt.buildErr
}

func (rt *Runtime) build() error {
	cfg := rt.Config

	hc, err := tlsroots.HTTPClient(cfg.Server.CA)
	if err != nil {
		return fmt.Errorf("server.ca: %w", err)
	}

	storeCfg := storage.DefaultConfig(cfg.Storage.Dir)
	storeCfg.Encrypt = cfg.Storage.Encrypt
	storeCfg.Ephemeral = cfg.Storage.Ephemeral
	storeCfg.Metrics = rt.Metrics.Prometheus()
	storeCfg.Logger = rt.Logger

	tokens, err := storage.Open(storeCfg)
	if err != nil {
		return err
	}
	rt.Tokens = tokens
	rt.shutdown.OnShutdown("token store", func(context.Context) error {
		return tokens.Close()
	})

	rt.Client = connection.NewHTTPClient(cfg.Server.URL,
		connection.WithHTTPClient(hc),
		connection.WithTokenSource(tokens),
		connection.WithUserAgent(buildinfo.UserAgent()),
		connection.WithMetrics(rt.Metrics),
		connection.WithLogger(rt.Logger),
	)

	rt.Auth = service.NewAuthService(rt.Client)
	rt.Passwords = service.NewPasswordRecoveryService(rt.Client)
	rt.Users = service.NewUsersService(rt.Client)

	rt.Session = session.New(rt.Auth, tokens,
		session.WithLogger(rt.Logger),
		session.WithMetrics(rt.Metrics),
	)
	rt.Metrics.MustRegister(metric.NewSessionCollector(rt.Session.Snapshot))
	return nil
}

// Ready returns the session store after settling it with Bootstrap.
// Bootstrap runs once per process.
func (rt *Runtime) Ready(ctx context.Context) (*session.Store, error) {
	if err := rt.Services(); err != nil {
		return nil, err
	}
	rt.bootOnce.Do(func() {
		rt.bootErr = rt.Session.Bootstrap(ctx)
	})
	if rt.bootErr != nil {
		return nil, rt.bootErr
	}
	return rt.Session, nil
}

// Close runs the shutdown hooks.
func (rt *Runtime) Close() error {
	return rt.shutdown.Shutdown()
}

// runtimeFrom returns the Runtime set up by the app's Before hook.
func runtimeFrom(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, errNoRuntime
}
