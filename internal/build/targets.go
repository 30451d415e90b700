package build

import (
	"context"
	"fmt"
	"sort"
)

// Target names.
const (
	TargetPaper = "paper"
	TargetView  = "view"
	TargetClean = "clean"
)

// Target is a named, invokable unit of the build recipe.
type Target struct {
	Name        string
	Description string
	Run         func(ctx context.Context, b *Builder) error
}

// targets is the static target table, fixed at process start.
var targets = map[string]Target{
	TargetPaper: {
		Name:        TargetPaper,
		Description: "Typeset the manuscript, resolve the bibliography, and clean intermediates",
		Run: func(ctx context.Context, b *Builder) error {
			_, err := b.Paper(ctx)
			return err
		},
	},
	TargetView: {
		Name:        TargetView,
		Description: "Open the rendered output in a detached viewer",
		Run: func(ctx context.Context, b *Builder) error {
			return b.View(ctx)
		},
	},
	TargetClean: {
		Name:        TargetClean,
		Description: "Delete intermediate and final build artifacts",
		Run: func(ctx context.Context, b *Builder) error {
			return b.Clean(ctx)
		},
	},
}

// LookupTarget resolves a target by name.
func LookupTarget(name string) (Target, error) {
	t, ok := targets[name]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q (known: %v)", name, TargetNames())
	}
	return t, nil
}

// TargetNames returns the known target names, sorted.
func TargetNames() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
