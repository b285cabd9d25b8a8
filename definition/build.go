// SPDX-License-Identifier: Apache-2.0

package definition

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/pkg/errors"

	"github.com/sam-fredrickson/process"
)

// Build resolves def into an executable Process.
//
// `use` steps are looked up in registry and `include` steps are loaded
// through loader and built recursively with the including definition's
// registry. Either may be nil when def does not need it. Every step nested
// in steps, switch branches or switch fallbacks becomes a nested Process
// built with the options of the definition it appears in.
//
// Unknown operations or includes, steps without exactly one kind, and
// include cycles fail with an error matching [process.ErrInitialization].
// Nothing is executed while building.
func Build(def *Definition, registry *Registry, loader Loader) (*process.Process, error) {
	b := &builder{registry: registry, loader: loader}
	return b.definition(def)
}

type builder struct {
	registry *Registry
	loader   Loader
	// stack holds the names of the definitions being built, outermost first.
	stack []string
}

func (b *builder) definition(def *Definition) (*process.Process, error) {
	if def == nil {
		return nil, initError("definition", "nil definition")
	}
	for _, name := range b.stack {
		if name == def.Name {
			cycle := append(append([]string{}, b.stack...), def.Name)
			return nil, initError("include", "cycle detected: %s", strings.Join(cycle, " -> "))
		}
	}
	b.stack = append(b.stack, def.Name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	opts := process.Options{DiscardInput: def.Options.DiscardInput}
	p, err := b.sequence("steps", def.Steps, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "definition %q", def.Name)
	}
	return p, nil
}

func (b *builder) sequence(path string, steps []StepDef, opts process.Options) (*process.Process, error) {
	ops := make([]any, 0, len(steps))
	for i := range steps {
		op, err := b.step(fmt.Sprintf("%s[%d]", path, i), &steps[i], opts)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return process.NewWith(opts, ops...)
}

func (b *builder) step(path string, s *StepDef, opts process.Options) (process.Operation, error) {
	kinds := s.kinds()
	if len(kinds) != 1 {
		found := "none"
		if len(kinds) > 0 {
			found = strings.Join(kinds, ", ")
		}
		return nil, initError(path,
			"step must have exactly one of use, set, exit, noop, steps, switch, include (found %s)", found)
	}

	op, err := b.kind(path, kinds[0], s, opts)
	if err != nil {
		return nil, err
	}
	if s.Name != "" {
		op = process.Named(s.Name, op)
	}
	return op, nil
}

func (b *builder) kind(path, kind string, s *StepDef, opts process.Options) (process.Operation, error) {
	switch kind {
	case "use":
		if b.registry == nil {
			return nil, initError(path+".use", "no registry for operation %q", s.Use)
		}
		op, ok := b.registry.Get(s.Use)
		if !ok {
			return nil, initError(path+".use", "unknown operation %q", s.Use)
		}
		return op, nil
	case "set":
		return process.Resolve(process.State(maps.Clone(s.Set))), nil
	case "exit":
		if s.Exit.Output == nil {
			return process.Exit, nil
		}
		output := process.State(maps.Clone(s.Exit.Output))
		return process.Func(func(context.Context, process.State) (any, error) {
			return process.ExitWith(output)
		}), nil
	case "noop":
		return process.Noop, nil
	case "steps":
		return b.sequence(path+".steps", s.Steps, opts)
	case "switch":
		return b.branch(path+".switch", s.Switch, opts)
	case "include":
		if b.loader == nil {
			return nil, initError(path+".include", "no loader for definition %q", s.Include)
		}
		included, err := b.loader.Load(s.Include)
		if err != nil {
			if !errors.Is(err, process.ErrInitialization) {
				err = &process.Error{Kind: process.KindInitialization, Message: err.Error()}
			}
			return nil, errors.Wrapf(err, "%s.include", path)
		}
		return b.definition(included)
	}
	return nil, initError(path, "unsupported step kind %q", kind)
}

func (b *builder) branch(path string, sw *SwitchDef, opts process.Options) (process.Operation, error) {
	options := make(map[string]any, len(sw.Options))
	for value, steps := range sw.Options {
		p, err := b.sequence(fmt.Sprintf("%s.options[%s]", path, value), steps, opts)
		if err != nil {
			return nil, err
		}
		options[value] = p
	}

	var fallback []any
	if len(sw.Fallback) > 0 {
		p, err := b.sequence(path+".fallback", sw.Fallback, opts)
		if err != nil {
			return nil, err
		}
		fallback = append(fallback, p)
	}

	route, err := process.Switch(sw.Key, options, fallback...)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return route, nil
}

// initError reports a malformed definition at path.
func initError(path, format string, args ...any) error {
	return &process.Error{
		Kind:    process.KindInitialization,
		Message: path + ": " + fmt.Sprintf(format, args...),
	}
}
