package command

import (
	"context"
	"errors"

	"github.com/louisbranch/commandeer/internal/bot/middleware"
	"github.com/louisbranch/commandeer/internal/discord"
)

// Handler is one layer of a command's middleware chain.
type Handler = middleware.Func[*Context]

// Next runs the remainder of a command chain.
type Next = middleware.Next

// Responder delivers replies for one interaction.
type Responder interface {
	// Respond sends the initial reply, or edits it once the interaction
	// has been acknowledged.
	Respond(ctx context.Context, data discord.MessageData) error
	// Defer acknowledges the interaction without content.
	Defer(ctx context.Context, ephemeral bool) error
	// Followup sends an additional message after acknowledgement.
	Followup(ctx context.Context, data discord.MessageData) error
	// Acknowledged reports whether a reply or deferral was sent.
	Acknowledged() bool
}

var errNoResponder = errors.New("command context has no responder")

// Context is the per-invocation value passed through a command chain.
// It is not safe for concurrent use.
type Context struct {
	ctx         context.Context
	interaction *discord.Interaction
	responder   Responder
	properties  map[string]any
}

// NewContext returns a context for one invocation.
func NewContext(ctx context.Context, interaction *discord.Interaction, responder Responder) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if interaction == nil {
		interaction = &discord.Interaction{}
	}
	return &Context{
		ctx:         ctx,
		interaction: interaction,
		responder:   responder,
		properties:  map[string]any{},
	}
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.ctx }

// SetContext replaces the request context, e.g. to carry a span.
func (c *Context) SetContext(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
}

func (c *Context) Interaction() *discord.Interaction { return c.interaction }
func (c *Context) Responder() Responder              { return c.responder }

// Locale returns the invoking user's locale.
func (c *Context) Locale() string {
	if c.interaction.Locale != "" {
		return c.interaction.Locale
	}
	return c.interaction.GuildLocale
}

// Option returns a supplied option of the invoked leaf.
func (c *Context) Option(name string) (discord.InteractionDataOption, bool) {
	_, _, options := c.interaction.Data.Route()
	return discord.FindOption(options, name)
}

// Set stores a per-invocation property.
func (c *Context) Set(key string, value any) {
	c.properties[key] = value
}

// Get returns a per-invocation property.
func (c *Context) Get(key string) (any, bool) {
	value, ok := c.properties[key]
	return value, ok
}

// Property returns the property stored under key when it holds a T.
func Property[T any](c *Context, key string) (T, bool) {
	var zero T
	value, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (c *Context) Respond(data discord.MessageData) error {
	if c.responder == nil {
		return errNoResponder
	}
	return c.responder.Respond(c.ctx, data)
}

func (c *Context) Defer(ephemeral bool) error {
	if c.responder == nil {
		return errNoResponder
	}
	return c.responder.Defer(c.ctx, ephemeral)
}

func (c *Context) Followup(data discord.MessageData) error {
	if c.responder == nil {
		return errNoResponder
	}
	return c.responder.Followup(c.ctx, data)
}

// Acknowledged reports whether the interaction was replied to or deferred.
func (c *Context) Acknowledged() bool {
	return c.responder != nil && c.responder.Acknowledged()
}
