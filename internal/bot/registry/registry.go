// Package registry freezes declared command trees into an immutable lookup
// table and runs the composed handler chain for a resolved path.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/bot/middleware"
	"github.com/louisbranch/commandeer/internal/discord"
)

// Separator joins the segments of a Key. Names may not contain it.
const Separator = "."

// Key identifies one invocable path.
type Key string

// KeyOf encodes a (command, group, subcommand) triple. Empty group and
// subcommand collapse; a group without a subcommand keeps a trailing
// separator so it never collides with a subcommand of the same name.
func KeyOf(name, group, subcommand string) Key {
	switch {
	case group == "" && subcommand == "":
		return Key(name)
	case group == "":
		return Key(name + Separator + subcommand)
	case subcommand == "":
		return Key(name + Separator + group + Separator)
	default:
		return Key(name + Separator + group + Separator + subcommand)
	}
}

// Path is the ordered list of nodes from a command down to the invoked leaf.
type Path []*command.Node

// Leaf returns the last node of the path.
func (p Path) Leaf() *command.Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Key returns the dispatch key of the path.
func (p Path) Key() Key {
	switch len(p) {
	case 1:
		return KeyOf(p[0].Name(), "", "")
	case 2:
		return KeyOf(p[0].Name(), "", p[1].Name())
	case 3:
		return KeyOf(p[0].Name(), p[1].Name(), p[2].Name())
	default:
		return ""
	}
}

// Request carries the transport values of one invocation.
type Request struct {
	Interaction *discord.Interaction
	Responder   command.Responder
}

// Builder collects global handlers and commands before Build.
type Builder struct {
	global   []command.Handler
	commands []*command.Node
	index    map[string]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: map[string]int{}}
}

// Use appends handlers run before every command chain.
func (b *Builder) Use(handlers ...command.Handler) *Builder {
	for _, h := range handlers {
		if h != nil {
			b.global = append(b.global, h)
		}
	}
	return b
}

// Register adds commands. Registering a name twice replaces the earlier
// command in place.
func (b *Builder) Register(commands ...*command.Node) *Builder {
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		if i, ok := b.index[cmd.Name()]; ok {
			b.commands[i] = cmd
			continue
		}
		b.index[cmd.Name()] = len(b.commands)
		b.commands = append(b.commands, cmd)
	}
	return b
}

// Build validates the declared trees and returns a frozen registry.
func (b *Builder) Build() (*Registry, error) {
	var errs []error
	for _, cmd := range b.commands {
		if cmd.Kind() != command.KindCommand {
			errs = append(errs, fmt.Errorf("registered %s %q is not a top-level command", cmd.Kind(), cmd.Name()))
			continue
		}
		if err := cmd.Err(); err != nil {
			errs = append(errs, fmt.Errorf("command %q: %w", cmd.Name(), err))
		}
		errs = append(errs, validateNames(cmd)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	reg := &Registry{
		global: slices.Clone(b.global),
		paths:  map[Key]Path{},
	}
	for _, cmd := range b.commands {
		frozen := cmd.Freeze()
		reg.commands = append(reg.commands, frozen)
		reg.add(Path{frozen})
		for _, child := range frozen.Children() {
			switch child.Kind() {
			case command.KindSubcommand:
				reg.add(Path{frozen, child})
			case command.KindGroup:
				for _, sub := range child.Subcommands() {
					reg.add(Path{frozen, child, sub})
				}
			}
		}
	}
	return reg, nil
}

func validateNames(node *command.Node) []error {
	var errs []error
	name := node.Name()
	if strings.TrimSpace(name) == "" {
		errs = append(errs, fmt.Errorf("%s name is required", node.Kind()))
	}
	if strings.Contains(name, Separator) {
		errs = append(errs, fmt.Errorf("%s %q: name may not contain %q", node.Kind(), name, Separator))
	}
	for _, child := range node.Children() {
		errs = append(errs, validateNames(child)...)
	}
	return errs
}

// Registry is the frozen command table. It is safe for concurrent use.
type Registry struct {
	global   []command.Handler
	commands []*command.Node
	paths    map[Key]Path
}

func (r *Registry) add(path Path) {
	r.paths[path.Key()] = path
}

// LookupPath returns the path registered under key.
func (r *Registry) LookupPath(key Key) (Path, bool) {
	path, ok := r.paths[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(path), true
}

// Lookup returns the leaf node registered under key.
func (r *Registry) Lookup(key Key) (*command.Node, bool) {
	path, ok := r.paths[key]
	if !ok {
		return nil, false
	}
	return path.Leaf(), true
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.paths))
	for key := range r.paths {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Commands returns the frozen top-level commands in registration order.
func (r *Registry) Commands() []*command.Node {
	return slices.Clone(r.commands)
}

// Definitions renders the wire definitions of every command.
func (r *Registry) Definitions() []discord.ApplicationCommand {
	out := make([]discord.ApplicationCommand, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd.Definition())
	}
	return out
}

// Run executes global handlers followed by the handlers of each node on
// path, outermost first. Chain errors are returned unmodified.
func (r *Registry) Run(ctx context.Context, path Path, req Request) error {
	handlers := slices.Clone(r.global)
	for _, node := range path {
		handlers = append(handlers, node.Handlers()...)
	}
	run := middleware.Compose(handlers, nil)
	return run(command.NewContext(ctx, req.Interaction, req.Responder))
}
