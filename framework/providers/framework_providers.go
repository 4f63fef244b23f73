package providers

import (
	"github.com/charmbracelet/log"

	"github.com/km-arc/go-scopes/framework/config"
	"github.com/km-arc/go-scopes/framework/container"
	"github.com/km-arc/go-scopes/framework/inspect"
	"github.com/km-arc/go-scopes/framework/module"
	"github.com/km-arc/go-scopes/framework/routing"
)

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider binds the loaded application configuration into ROOT.
//
// Bound keys:
//   - *config.Config
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config);
type ConfigProvider struct {
	Config *config.Config
}

func (p *ConfigProvider) Declare(ctx *module.Context) {
	module.Instance(ctx, p.Config)
}

// ── LogProvider ───────────────────────────────────────────────────────────────

// LogProvider binds the application logger into ROOT.
//
// Bound keys:
//   - *log.Logger
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LogProvider struct {
	Logger *log.Logger
}

func (p *LogProvider) Declare(ctx *module.Context) {
	module.Instance(ctx, p.Logger)
}

// ── RoutingProvider ───────────────────────────────────────────────────────────

// RoutingProvider registers the HTTP router with the inspector endpoints for
// the tree the router is built in mounted under InspectorPrefix. Built eagerly.
//
// Bound keys:
//   - *routing.Router  (needs *log.Logger)
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingProvider struct{}

// InspectorPrefix is the path the inspector endpoints are served under.
const InspectorPrefix = "/_scopes"

func (p *RoutingProvider) Declare(ctx *module.Context) {
	module.Provide(ctx, newRouter,
		module.DependsOn(container.KeyOf[*log.Logger]()),
		module.Eager(),
	)
}

func newRouter(r *container.Resolver) (*routing.Router, error) {
	logger, err := container.Resolve[*log.Logger](r)
	if err != nil {
		return nil, err
	}
	router := routing.New(logger)
	router.Prefix(InspectorPrefix, func(sub *routing.Router) {
		inspect.Routes(sub, r.Tree())
	})
	return router, nil
}

// Framework returns the core providers in registration order.
func Framework(cfg *config.Config, logger *log.Logger) []module.Module {
	return []module.Module{
		&ConfigProvider{Config: cfg},
		&LogProvider{Logger: logger},
		&RoutingProvider{},
	}
}
