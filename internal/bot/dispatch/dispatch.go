// Package dispatch routes inbound command interactions to the registry and
// turns chain failures into opaque, correlatable replies.
package dispatch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/bot/registry"
	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/discord/rest"
	apperrors "github.com/louisbranch/commandeer/internal/platform/errors"
	errori18n "github.com/louisbranch/commandeer/internal/platform/errors/i18n"
	"github.com/louisbranch/commandeer/internal/platform/id"
	"github.com/louisbranch/commandeer/internal/platform/requestctx"
	"github.com/louisbranch/commandeer/internal/platform/timeouts"
)

// Registry resolves and runs command paths.
type Registry interface {
	LookupPath(key registry.Key) (registry.Path, bool)
	Run(ctx context.Context, path registry.Path, req registry.Request) error
}

// Options configures a Dispatcher.
type Options struct {
	Logger *log.Logger
	// InvocationTimeout bounds one chain run. Zero selects
	// timeouts.Invocation.
	InvocationTimeout time.Duration
	// NewTraceID overrides trace id generation in tests.
	NewTraceID func() string
}

// Dispatcher is the outermost caller of the command chain.
type Dispatcher struct {
	registry   Registry
	logger     *log.Logger
	timeout    time.Duration
	newTraceID func() string
}

// New returns a dispatcher over reg.
func New(reg Registry, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := opts.InvocationTimeout
	if timeout <= 0 {
		timeout = timeouts.Invocation
	}
	newTraceID := opts.NewTraceID
	if newTraceID == nil {
		newTraceID = id.NewTraceID
	}
	return &Dispatcher{
		registry:   reg,
		logger:     logger,
		timeout:    timeout,
		newTraceID: newTraceID,
	}
}

// KeyFor derives the dispatch key of an application command interaction.
// It reports false for any other interaction.
func KeyFor(interaction *discord.Interaction) (registry.Key, bool) {
	if interaction == nil || interaction.Type != discord.InteractionTypeApplicationCommand {
		return "", false
	}
	if interaction.Data == nil || interaction.Data.Name == "" {
		return "", false
	}
	group, subcommand, _ := interaction.Data.Route()
	return registry.KeyOf(interaction.Data.Name, group, subcommand), true
}

// Dispatch runs the chain registered for interaction. Interactions that are
// not commands, come from bots, or have no registered path are dropped and
// return nil.
//
// When the chain fails, the failure is logged under a fresh trace id and the
// invoker receives an ephemeral message carrying only that id. The returned
// error wraps the chain error and keeps its kind.
func (d *Dispatcher) Dispatch(ctx context.Context, interaction *discord.Interaction, responder command.Responder) error {
	key, ok := KeyFor(interaction)
	if !ok {
		return nil
	}
	invoker := interaction.Invoker()
	if invoker != nil && invoker.Bot {
		return nil
	}
	path, ok := d.registry.LookupPath(key)
	if !ok {
		d.logger.Warn("no command registered for key",
			"key", key,
			"interaction_id", interaction.ID,
			"request_id", requestctx.RequestIDFromContext(ctx),
		)
		return nil
	}

	traceID := d.newTraceID()
	ctx = requestctx.WithTraceID(ctx, traceID)
	if invoker != nil {
		ctx = requestctx.WithUserID(ctx, invoker.ID)
	}
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.registry.Run(runCtx, path, registry.Request{Interaction: interaction, Responder: responder})
	if err == nil {
		return nil
	}

	failure := apperrors.WithMetadata(failureKind(err), "dispatch "+string(key), map[string]string{"TraceID": traceID})
	failure.Cause = err
	d.logger.Error("command failed",
		"key", key,
		"trace_id", traceID,
		"kind", failure.Kind,
		"err", err,
	)
	if responder != nil {
		replyCtx, cancelReply := context.WithTimeout(context.WithoutCancel(ctx), timeouts.DiscordRequest)
		defer cancelReply()
		if replyErr := replyFailure(replyCtx, interaction, responder, failure); replyErr != nil {
			if rest.IsNotFound(replyErr) {
				d.logger.Warn("interaction expired before failure reply", "key", key, "trace_id", traceID)
			} else {
				d.logger.Error("send failure reply", "key", key, "trace_id", traceID, "err", replyErr)
			}
		}
	}
	return failure
}

func failureKind(err error) apperrors.Kind {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindUnknown {
		return apperrors.KindHandlerFailure
	}
	return kind
}

func locale(interaction *discord.Interaction) string {
	if interaction.Locale != "" {
		return interaction.Locale
	}
	return interaction.GuildLocale
}

func replyFailure(ctx context.Context, interaction *discord.Interaction, responder command.Responder, failure *apperrors.Error) error {
	text := errori18n.GetCatalog(locale(interaction)).Format(string(failure.Kind), failure.Metadata)
	data := discord.MessageData{
		Embeds: []discord.Embed{discord.ErrorEmbed(text)},
		Flags:  discord.MessageFlagEphemeral,
	}
	if responder.Acknowledged() {
		return responder.Followup(ctx, data)
	}
	return responder.Respond(ctx, data)
}
