package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/km-arc/go-scopes/framework/container"
	"github.com/km-arc/go-scopes/framework/inspect"
)

// renderTree draws the scope tree with each scope's bindings listed before
// its child scopes.
func renderTree(snap container.Snapshot) string {
	if len(snap.Scopes) == 0 {
		return ""
	}
	byName := make(map[string]container.ScopeInfo, len(snap.Scopes))
	for _, s := range snap.Scopes {
		byName[s.Name] = s
	}

	var build func(s container.ScopeInfo) *tree.Tree
	build = func(s container.ScopeInfo) *tree.Tree {
		t := newTree(s.Name)
		for _, b := range s.Bindings {
			t.Child(renderBinding(b))
		}
		for _, child := range s.Children {
			t.Child(build(byName[child]))
		}
		return t
	}
	return build(snap.Scopes[0]).String()
}

func renderBinding(b container.BindingInfo) string {
	var sb strings.Builder
	sb.WriteString(KeyStyle.Render(b.Key.String()))
	if len(b.Dependencies) > 0 {
		deps := make([]string, len(b.Dependencies))
		for i, d := range b.Dependencies {
			deps[i] = d.String()
		}
		sb.WriteString(SubtitleStyle.Render(" <- " + strings.Join(deps, ", ")))
	}
	var flags []string
	if b.Eager {
		flags = append(flags, "eager")
	}
	if b.Cached {
		flags = append(flags, "cached")
	}
	if len(flags) > 0 {
		sb.WriteString(SubtitleStyle.Render(" [" + strings.Join(flags, ", ") + "]"))
	}
	return sb.String()
}

// renderProblem formats a classified error with its trace and causes,
// one indented line per level.
func renderProblem(p inspect.Problem) string {
	var sb strings.Builder
	for depth, cur := 0, &p; cur != nil; depth, cur = depth+1, cur.Cause {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s%s %s\n", indent, ErrorStyle.Render(cur.Kind), cur.Message)
		if len(cur.Trace) > 0 {
			fmt.Fprintf(&sb, "%s  %s\n", indent, SubtitleStyle.Render("while building "+cur.Trace.String()))
		}
		if cur.Kind == inspect.KindCircularDependency {
			keys := make([]string, len(cur.Cycle))
			for i, k := range cur.Cycle {
				keys[i] = k.String()
			}
			fmt.Fprintf(&sb, "%s  %s\n", indent, WarningStyle.Render("cycle "+strings.Join(keys, " -> ")))
		}
	}
	return sb.String()
}
