// Package console is the `scopes` command line: it builds a scope tree from
// named modules and prints, verifies, resolves or serves it.
package console

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-scopes/framework/app"
	"github.com/km-arc/go-scopes/framework/config"
	"github.com/km-arc/go-scopes/framework/container"
	"github.com/km-arc/go-scopes/framework/inspect"
	"github.com/km-arc/go-scopes/framework/logging"
	"github.com/km-arc/go-scopes/framework/module"
)

// ErrVerifyFailed is returned by `scopes verify` when problems were found.
var ErrVerifyFailed = errors.New("verification failed")

// Catalog maps the names accepted by --module to modules.
type Catalog map[string]module.Module

// Names returns the catalog names sorted.
func (c Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

type options struct {
	catalog  Catalog
	envFiles []string
	modules  []string
}

// NewRootCommand returns the `scopes` command with its sub-commands.
func NewRootCommand(catalog Catalog) *cobra.Command {
	opts := &options{catalog: catalog}

	root := &cobra.Command{
		Use:   "scopes",
		Short: "Inspect hierarchical dependency scopes",
		Long: TitleStyle.Render("scopes") + SubtitleStyle.Render(" - inspect hierarchical dependency scopes") + `

Builds a scope tree from the selected modules, then prints it, checks its
declared dependencies, resolves a type from a scope, or serves the HTTP
inspector.

` + SubtitleStyle.Render("Examples:") + `
  scopes tree --module flat
  scopes verify --module hierarchy
  scopes resolve ComponentD --scope D --module cross-branch
  scopes serve --module flat --env .env.local`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env", nil, "env files to load (default .env)")
	root.PersistentFlags().StringSliceVarP(&opts.modules, "module", "m", nil,
		"modules to register, any of: "+strings.Join(catalog.Names(), ", "))
	_ = root.MarkPersistentFlagRequired("module")

	root.AddCommand(
		newTreeCommand(opts),
		newVerifyCommand(opts),
		newResolveCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// Execute runs the root command and prints any error. It returns the
// process exit code.
func Execute(ctx context.Context, catalog Catalog, args []string) int {
	root := NewRootCommand(catalog)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), ErrorStyle.Render("Error:")+" "+err.Error())
		return 1
	}
	return 0
}

// application builds and boots an application holding the selected modules.
// warm overrides CONTAINER_WARM so read-only commands construct nothing.
func (o *options) application(cmd *cobra.Command, warm bool) (*app.Application, error) {
	mods := make([]module.Module, 0, len(o.modules))
	for _, name := range o.modules {
		m, ok := o.catalog[name]
		if !ok {
			return nil, fmt.Errorf("unknown module %q (available: %s)", name, strings.Join(o.catalog.Names(), ", "))
		}
		mods = append(mods, m)
	}

	cfg := config.Load(o.envFiles...)
	cfg.Container.Warm = cfg.Container.Warm && warm
	application := app.New(nil,
		app.WithConfig(cfg),
		app.WithLogger(logging.New(cfg.Log, cmd.ErrOrStderr())),
	)
	if application.IsDebug() {
		application.Logger().SetLevel(log.DebugLevel)
	}
	if err := application.Register(mods...); err != nil {
		return nil, err
	}
	if err := application.Boot(cmd.Context()); err != nil {
		return nil, err
	}
	return application, nil
}

// ── tree ──────────────────────────────────────────────────────────────────────

func newTreeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the scope tree and its bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.application(cmd, false)
			if err != nil {
				return err
			}
			tree := application.Tree()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTree(tree.Snapshot()))
			fmt.Fprintln(out, SubtitleStyle.Render(fmt.Sprintf("%d scopes, %d bindings", tree.ScopeCount(), tree.BindingCount())))
			return nil
		},
	}
}

// ── verify ────────────────────────────────────────────────────────────────────

func newVerifyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check declared dependencies for visibility and cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.application(cmd, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			problems := inspect.Problems(application.Tree().Verify())
			if len(problems) == 0 {
				fmt.Fprintln(out, SuccessStyle.Render("✓")+" all declared dependencies are visible and acyclic")
				return nil
			}
			for _, p := range problems {
				fmt.Fprint(out, renderProblem(p))
			}
			return fmt.Errorf("%w: %d problem(s)", ErrVerifyFailed, len(problems))
		},
	}
}

// ── resolve ───────────────────────────────────────────────────────────────────

func newResolveCommand(opts *options) *cobra.Command {
	var scope, qualifier string

	cmd := &cobra.Command{
		Use:   "resolve TYPE",
		Short: "Resolve a type from a scope and report where it was built",
		Long: `Resolve a type from a scope and report where it was built.

TYPE is the full type identifier, the package-relative form (*stack.ComponentA)
or the bare type name (ComponentA).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.application(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()
			tree := application.Tree()

			key, err := tree.FindKey(args[0], qualifier)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			inst, err := tree.GetIn(key, scope)
			if err != nil {
				fmt.Fprint(out, renderProblem(inspect.Classify(err)))
				return err
			}
			owner, _ := tree.ScopeOf(key, scope)
			fmt.Fprintf(out, "%s %s from %s, built in %s as %s\n",
				SuccessStyle.Render("✓"),
				KeyStyle.Render(key.String()),
				TitleStyle.Render(scope),
				TitleStyle.Render(owner),
				container.TypeName(inst),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&scope, "scope", "s", container.RootScope, "scope to resolve from")
	cmd.Flags().StringVarP(&qualifier, "qualifier", "q", "", "qualifier of a named binding")
	return cmd
}

// ── serve ─────────────────────────────────────────────────────────────────────

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP inspector until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.application(cmd, true)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}
