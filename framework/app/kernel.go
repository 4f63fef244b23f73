package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/km-arc/go-scopes/framework/config"
	"github.com/km-arc/go-scopes/framework/container"
	"github.com/km-arc/go-scopes/framework/logging"
	"github.com/km-arc/go-scopes/framework/module"
	"github.com/km-arc/go-scopes/framework/providers"
	"github.com/km-arc/go-scopes/framework/routing"
)

// Version is reported by the console and the startup log line.
const Version = "0.1.0"

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// ErrNotBooted is returned by operations that need the scope tree before Boot.
var ErrNotBooted = errors.New("app: application not booted")

// Application owns the module registry and, once booted, the scope tree. It is
// the equivalent of $app in Laravel's bootstrap/app.php.
type Application struct {
	config   *config.Config
	logger   *log.Logger
	registry *module.Registry
}

// Option adjusts an Application under construction.
type Option func(a *Application)

// WithConfig uses cfg instead of loading configuration from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(a *Application) { a.config = cfg }
}

// WithLogger uses logger instead of building one from the log config.
func WithLogger(logger *log.Logger) Option {
	return func(a *Application) { a.logger = logger }
}

// New creates the application, loading config from envFiles (default
// ".env") and registering the framework providers.
//
//	application := app.New(nil, app.WithConfig(cfg))
//	application.Register(stack.Flat)
//	err := application.Boot(ctx)
func New(envFiles []string, opts ...Option) *Application {
	a := &Application{registry: module.NewRegistry()}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		a.config = config.Load(envFiles...)
	}
	if a.logger == nil {
		a.logger = logging.New(a.config.Log, os.Stderr)
	}

	// Framework providers always come first.
	_ = a.registry.Register(providers.Framework(a.config, a.logger)...)
	return a
}

// Register adds application modules. It fails once the application booted.
func (a *Application) Register(modules ...module.Module) error {
	return a.registry.Register(modules...)
}

// Boot builds the scope tree from every registered module and, when
// CONTAINER_WARM is set, builds the eager bindings. Booting twice is a no-op.
func (a *Application) Boot(ctx context.Context) error {
	if a.registry.Built() {
		return nil
	}
	tree, err := a.registry.Build(container.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("app: build scope tree: %w", err)
	}
	a.logger.Debug("scope tree built", "scopes", tree.ScopeCount(), "bindings", tree.BindingCount())

	if a.config.Container.Warm {
		if err := tree.Warm(ctx); err != nil {
			return fmt.Errorf("app: warm eager bindings: %w", err)
		}
	}
	return nil
}

// Booted returns true once Boot has built the tree.
func (a *Application) Booted() bool { return a.registry.Built() }

// Tree returns the scope tree, or nil before Boot.
func (a *Application) Tree() *container.Tree { return a.registry.Tree() }

// Config returns the application configuration.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *log.Logger { return a.logger }

// Router resolves the HTTP router from the tree.
func (a *Application) Router() (*routing.Router, error) {
	tree := a.Tree()
	if tree == nil {
		return nil, ErrNotBooted
	}
	return container.Resolve[*routing.Router](tree)
}

// Run boots the application (if needed) and serves the inspector on
// INSPECTOR_HOST:INSPECTOR_PORT until ctx is done, then shuts down
// gracefully and releases the tree.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Inspector.Addr())
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Boot(ctx); err != nil {
		_ = ln.Close()
		return err
	}
	router, err := a.Router()
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	a.logger.Info("inspector listening",
		"app", a.config.App.Name,
		"addr", "http://"+ln.Addr().String(),
		"env", a.Environment(),
		"version", Version,
	)

	select {
	case err := <-errc:
		return errors.Join(fmt.Errorf("app: serve: %w", err), a.Close())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down")
	err = srv.Shutdown(shutdownCtx)
	if serveErr := <-errc; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	return errors.Join(err, a.Close())
}

// Close releases every cached instance in the tree.
func (a *Application) Close() error {
	if tree := a.Tree(); tree != nil {
		return tree.Close()
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }

// IsDebug reports whether APP_DEBUG is set.
func (a *Application) IsDebug() bool { return a.config.App.Debug }
