// Package command models the tree of invocable commands: top-level commands,
// subcommand groups and subcommands, each with an option schema and an
// ordered list of handlers.
package command

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/louisbranch/commandeer/internal/discord"
)

// Kind tags the level a node occupies in the tree.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindGroup
	KindSubcommand
)

// String returns the kind label.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindGroup:
		return "group"
	case KindSubcommand:
		return "subcommand"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a command, subcommand group or subcommand.
//
// Nodes are mutable while the tree is declared. A node registered with a
// registry is deep-copied and frozen; mutators are no-ops on frozen nodes.
type Node struct {
	kind                     Kind
	name                     string
	description              string
	nameLocalizations        map[string]string
	descriptionLocalizations map[string]string
	options                  []discord.ApplicationCommandOption
	handlers                 []Handler
	children                 []*Node
	index                    map[string]int

	defaultMemberPermissions *string
	nsfw                     *bool
	contexts                 []int
	integrationTypes         []int
	entryPointHandler        *int

	errs   []error
	frozen bool
}

// New returns a top-level command.
func New(name, description string) *Node {
	return newNode(KindCommand, name, description)
}

// NewGroup returns a subcommand group.
func NewGroup(name, description string) *Node {
	return newNode(KindGroup, name, description)
}

// NewSubcommand returns a subcommand.
func NewSubcommand(name, description string) *Node {
	return newNode(KindSubcommand, name, description)
}

func newNode(kind Kind, name, description string) *Node {
	return &Node{kind: kind, name: name, description: description}
}

func (n *Node) Kind() Kind          { return n.kind }
func (n *Node) Name() string        { return n.name }
func (n *Node) Description() string { return n.description }
func (n *Node) Frozen() bool        { return n.frozen }

// Handlers returns a copy of the node's handlers in registration order.
func (n *Node) Handlers() []Handler {
	return slices.Clone(n.handlers)
}

// Options returns a copy of the node's option schema.
func (n *Node) Options() []discord.ApplicationCommandOption {
	return cloneOptions(n.options)
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Groups returns the subcommand-group children.
func (n *Node) Groups() []*Node {
	return n.childrenOf(KindGroup)
}

// Subcommands returns the subcommand children.
func (n *Node) Subcommands() []*Node {
	return n.childrenOf(KindSubcommand)
}

func (n *Node) childrenOf(kind Kind) []*Node {
	var out []*Node
	for _, child := range n.children {
		if child.kind == kind {
			out = append(out, child)
		}
	}
	return out
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// Handle appends handlers run when this node is on the invoked path.
func (n *Node) Handle(handlers ...Handler) *Node {
	if n.frozen {
		return n
	}
	for _, h := range handlers {
		if h != nil {
			n.handlers = append(n.handlers, h)
		}
	}
	return n
}

// AddChild attaches child. Commands accept groups and subcommands; groups
// accept subcommands only. A child whose name is already present replaces
// the previous child in place. Invalid nesting is reported by Err.
func (n *Node) AddChild(child *Node) *Node {
	if n.frozen || child == nil {
		return n
	}
	if !n.accepts(child.kind) {
		n.errs = append(n.errs, fmt.Errorf("%s %q cannot contain %s %q", n.kind, n.name, child.kind, child.name))
		return n
	}
	if n.index == nil {
		n.index = map[string]int{}
	}
	if i, ok := n.index[child.name]; ok {
		n.children[i] = child
		return n
	}
	n.index[child.name] = len(n.children)
	n.children = append(n.children, child)
	return n
}

func (n *Node) accepts(kind Kind) bool {
	switch n.kind {
	case KindCommand:
		return kind == KindGroup || kind == KindSubcommand
	case KindGroup:
		return kind == KindSubcommand
	default:
		return false
	}
}

// Localize sets the name and description shown for locale. Empty values are
// left unchanged.
func (n *Node) Localize(locale, name, description string) *Node {
	if n.frozen {
		return n
	}
	if name != "" {
		if n.nameLocalizations == nil {
			n.nameLocalizations = map[string]string{}
		}
		n.nameLocalizations[locale] = name
	}
	if description != "" {
		if n.descriptionLocalizations == nil {
			n.descriptionLocalizations = map[string]string{}
		}
		n.descriptionLocalizations[locale] = description
	}
	return n
}

// SetDefaultMemberPermissions sets the permission bit set required by default.
func (n *Node) SetDefaultMemberPermissions(permissions string) *Node {
	if n.commandOnly("default member permissions") {
		n.defaultMemberPermissions = &permissions
	}
	return n
}

// SetNSFW marks the command age-restricted.
func (n *Node) SetNSFW(nsfw bool) *Node {
	if n.commandOnly("nsfw") {
		n.nsfw = &nsfw
	}
	return n
}

// SetContexts sets the interaction contexts the command is available in.
func (n *Node) SetContexts(contexts ...int) *Node {
	if n.commandOnly("contexts") {
		n.contexts = slices.Clone(contexts)
	}
	return n
}

// SetIntegrationTypes sets the installation contexts of the command.
func (n *Node) SetIntegrationTypes(types ...int) *Node {
	if n.commandOnly("integration types") {
		n.integrationTypes = slices.Clone(types)
	}
	return n
}

// SetEntryPointHandler sets the handler type of an entry-point command.
func (n *Node) SetEntryPointHandler(handler int) *Node {
	if n.commandOnly("entry point handler") {
		n.entryPointHandler = &handler
	}
	return n
}

func (n *Node) commandOnly(field string) bool {
	if n.frozen {
		return false
	}
	if n.kind != KindCommand {
		n.errs = append(n.errs, fmt.Errorf("%s %q: %s is only valid on commands", n.kind, n.name, field))
		return false
	}
	return true
}

// Err reports every declaration error recorded on this node or its
// descendants.
func (n *Node) Err() error {
	errs := slices.Clone(n.errs)
	for _, child := range n.children {
		if err := child.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Freeze returns a frozen deep copy of the tree rooted at n.
func (n *Node) Freeze() *Node {
	out := &Node{
		kind:                     n.kind,
		name:                     n.name,
		description:              n.description,
		nameLocalizations:        maps.Clone(n.nameLocalizations),
		descriptionLocalizations: maps.Clone(n.descriptionLocalizations),
		options:                  cloneOptions(n.options),
		handlers:                 slices.Clone(n.handlers),
		contexts:                 slices.Clone(n.contexts),
		integrationTypes:         slices.Clone(n.integrationTypes),
		errs:                     slices.Clone(n.errs),
		frozen:                   true,
	}
	if n.defaultMemberPermissions != nil {
		v := *n.defaultMemberPermissions
		out.defaultMemberPermissions = &v
	}
	if n.nsfw != nil {
		v := *n.nsfw
		out.nsfw = &v
	}
	if n.entryPointHandler != nil {
		v := *n.entryPointHandler
		out.entryPointHandler = &v
	}
	if len(n.children) > 0 {
		out.children = make([]*Node, len(n.children))
		out.index = make(map[string]int, len(n.children))
		for i, child := range n.children {
			out.children[i] = child.Freeze()
			out.index[child.name] = i
		}
	}
	return out
}

// Definition renders the wire definition of a top-level command. Options
// come first, followed by children in insertion order.
func (n *Node) Definition() discord.ApplicationCommand {
	cmd := discord.ApplicationCommand{
		Type:                     discord.CommandTypeChatInput,
		Name:                     n.name,
		NameLocalizations:        maps.Clone(n.nameLocalizations),
		Description:              n.description,
		DescriptionLocalizations: maps.Clone(n.descriptionLocalizations),
		Options:                  n.wireOptions(),
		Contexts:                 slices.Clone(n.contexts),
		IntegrationTypes:         slices.Clone(n.integrationTypes),
	}
	if n.defaultMemberPermissions != nil {
		v := *n.defaultMemberPermissions
		cmd.DefaultMemberPermissions = &v
	}
	if n.nsfw != nil {
		v := *n.nsfw
		cmd.NSFW = &v
	}
	if n.entryPointHandler != nil {
		v := *n.entryPointHandler
		cmd.Handler = &v
	}
	return cmd
}

func (n *Node) wireOptions() []discord.ApplicationCommandOption {
	out := cloneOptions(n.options)
	for _, child := range n.children {
		optionType := discord.OptionTypeSubcommand
		if child.kind == KindGroup {
			optionType = discord.OptionTypeSubcommandGroup
		}
		out = append(out, discord.ApplicationCommandOption{
			Type:                     optionType,
			Name:                     child.name,
			NameLocalizations:        maps.Clone(child.nameLocalizations),
			Description:              child.description,
			DescriptionLocalizations: maps.Clone(child.descriptionLocalizations),
			Options:                  child.wireOptions(),
		})
	}
	return out
}
