package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/bot/middleware"
)

func TestKeyOfIsInjective(t *testing.T) {
	triples := [][3]string{
		{"a", "", ""},
		{"a", "", "b"},
		{"a", "b", ""},
		{"a", "b", "c"},
		{"a", "c", "b"},
		{"b", "", "a"},
		{"ab", "", ""},
		{"a", "", "bc"},
	}
	seen := map[Key][3]string{}
	for _, triple := range triples {
		key := KeyOf(triple[0], triple[1], triple[2])
		if other, ok := seen[key]; ok {
			t.Fatalf("key %q shared by %v and %v", key, other, triple)
		}
		seen[key] = triple
	}
	if KeyOf("a", "b", "c") != KeyOf("a", "b", "c") {
		t.Fatal("KeyOf is not deterministic")
	}
}

func TestKeyOfEncoding(t *testing.T) {
	tests := []struct {
		name, group, sub string
		want             Key
	}{
		{"ping", "", "", "ping"},
		{"debug", "", "registry", "debug.registry"},
		{"admin", "roles", "add", "admin.roles.add"},
		{"admin", "roles", "", "admin.roles."},
	}
	for _, tt := range tests {
		if got := KeyOf(tt.name, tt.group, tt.sub); got != tt.want {
			t.Fatalf("KeyOf(%q, %q, %q) = %q, want %q", tt.name, tt.group, tt.sub, got, tt.want)
		}
	}
}

func sampleTree() *command.Node {
	return command.New("admin", "Admin").
		AddChild(command.NewSubcommand("audit", "Audit")).
		AddChild(command.NewGroup("roles", "Roles").
			AddChild(command.NewSubcommand("add", "Add")).
			AddChild(command.NewSubcommand("remove", "Remove")))
}

func TestBuildRegistersEveryPath(t *testing.T) {
	reg, err := NewBuilder().Register(command.New("ping", "Ping"), sampleTree()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []Key{"admin", "admin.audit", "admin.roles.add", "admin.roles.remove", "ping"}
	if got := reg.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	path, ok := reg.LookupPath("admin.roles.add")
	if !ok || len(path) != 3 {
		t.Fatalf("LookupPath = %v, %v", path, ok)
	}
	if path[0].Name() != "admin" || path[1].Name() != "roles" || path.Leaf().Name() != "add" {
		t.Fatalf("path = %s/%s/%s", path[0].Name(), path[1].Name(), path.Leaf().Name())
	}
	if path.Key() != "admin.roles.add" {
		t.Fatalf("path key = %q", path.Key())
	}
	if _, ok := reg.LookupPath("admin.roles."); ok {
		t.Fatal("group without subcommand should not be invocable")
	}
	if _, ok := reg.LookupPath("missing"); ok {
		t.Fatal("expected lookup miss")
	}
	if leaf, ok := reg.Lookup("admin.audit"); !ok || leaf.Name() != "audit" {
		t.Fatalf("Lookup = %v, %v", leaf, ok)
	}
}

func TestBuildRejectsInvalidTrees(t *testing.T) {
	tests := []struct {
		name string
		node *command.Node
	}{
		{name: "dotted name", node: command.New("a.b", "x")},
		{name: "dotted child", node: command.New("a", "x").AddChild(command.NewSubcommand("b.c", "x"))},
		{name: "empty name", node: command.New("", "x")},
		{name: "subcommand at top level", node: command.NewSubcommand("a", "x")},
		{name: "bad nesting", node: command.New("a", "x").AddChild(command.NewGroup("g", "g").AddChild(command.NewGroup("h", "h")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBuilder().Register(tt.node).Build(); err == nil {
				t.Fatal("expected build error")
			}
		})
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	reg, err := NewBuilder().
		Register(command.New("a", "first"), command.New("b", "b"), command.New("a", "second")).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	commands := reg.Commands()
	if len(commands) != 2 || commands[0].Description() != "second" {
		t.Fatalf("commands = %d, first = %q", len(commands), commands[0].Description())
	}
	defs := reg.Definitions()
	if len(defs) != 2 || defs[0].Name != "a" || defs[1].Name != "b" {
		t.Fatalf("definitions = %+v", defs)
	}
}

func TestBuildFreezesCopy(t *testing.T) {
	root := command.New("a", "a")
	reg, err := NewBuilder().Register(root).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	root.AddChild(command.NewSubcommand("late", "late"))
	if _, ok := reg.LookupPath("a.late"); ok {
		t.Fatal("registry observed mutation after build")
	}
	if len(reg.Definitions()[0].Options) != 0 {
		t.Fatal("definition observed mutation after build")
	}
}

func recorder(steps *[]string, name string) command.Handler {
	return func(c *command.Context, next command.Next) error {
		*steps = append(*steps, name+"-before")
		err := next()
		*steps = append(*steps, name+"-after")
		return err
	}
}

func TestRunComposesGlobalThenPath(t *testing.T) {
	var steps []string
	tree := command.New("admin", "Admin").Handle(recorder(&steps, "cmd")).
		AddChild(command.NewGroup("roles", "Roles").Handle(recorder(&steps, "group")).
			AddChild(command.NewSubcommand("add", "Add").Handle(func(c *command.Context, _ command.Next) error {
				steps = append(steps, "leaf")
				return nil
			})))
	reg, err := NewBuilder().Use(recorder(&steps, "global")).Register(tree).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path, ok := reg.LookupPath(KeyOf("admin", "roles", "add"))
	if !ok {
		t.Fatal("expected path")
	}
	if err := reg.Run(context.Background(), path, Request{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"global-before", "cmd-before", "group-before", "leaf", "group-after", "cmd-after", "global-after"}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
}

func TestRunReturnsErrorsUnmodified(t *testing.T) {
	boom := errors.New("boom")
	reg, err := NewBuilder().Register(command.New("a", "a").Handle(func(*command.Context, command.Next) error {
		return boom
	})).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path, _ := reg.LookupPath("a")
	if err := reg.Run(context.Background(), path, Request{}); err != boom {
		t.Fatalf("Run() = %v, want boom", err)
	}
}

func TestRunSharesPropertiesAcrossLayers(t *testing.T) {
	var seen string
	reg, err := NewBuilder().
		Use(func(c *command.Context, next command.Next) error {
			c.Set("user", "alice")
			return next()
		}).
		Register(command.New("a", "a").Handle(func(c *command.Context, next command.Next) error {
			seen, _ = command.Property[string](c, "user")
			return next()
		})).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path, _ := reg.LookupPath("a")
	if err := reg.Run(context.Background(), path, Request{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if seen != "alice" {
		t.Fatalf("property = %q, want alice", seen)
	}
}

func TestRunDoubleNextSurfaces(t *testing.T) {
	var calls int
	reg, err := NewBuilder().
		Use(func(c *command.Context, next command.Next) error {
			if err := next(); err != nil {
				return err
			}
			return next()
		}).
		Register(command.New("a", "a").Handle(func(*command.Context, command.Next) error {
			calls++
			return nil
		})).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path, _ := reg.LookupPath("a")
	err = reg.Run(context.Background(), path, Request{})
	if !errors.Is(err, middleware.ErrMultipleNext) {
		t.Fatalf("Run() = %v, want ErrMultipleNext", err)
	}
	if calls != 1 {
		t.Fatalf("leaf ran %d times, want 1", calls)
	}
}
