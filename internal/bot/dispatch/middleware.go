package dispatch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/bot/storage"
	"github.com/louisbranch/commandeer/internal/discord"
	errori18n "github.com/louisbranch/commandeer/internal/platform/errors/i18n"
	"github.com/louisbranch/commandeer/internal/platform/id"
	platformotel "github.com/louisbranch/commandeer/internal/platform/otel"
	"github.com/louisbranch/commandeer/internal/platform/requestctx"
	"github.com/louisbranch/commandeer/internal/platform/timeouts"
)

// Logging logs the start and end of every invocation.
func Logging(logger *log.Logger) command.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *command.Context, next command.Next) error {
		key, _ := KeyFor(c.Interaction())
		entry := logger.With(
			"key", key,
			"trace_id", requestctx.TraceIDFromContext(c.Context()),
			"user_id", requestctx.UserIDFromContext(c.Context()),
			"guild_id", c.Interaction().GuildID,
		)
		start := time.Now()
		entry.Debug("command started")
		err := next()
		entry.Info("command finished", "ok", err == nil, "duration", time.Since(start))
		return err
	}
}

// Tracing wraps the rest of the chain in a server span. A nil tracer uses
// the global provider.
func Tracing(tracer trace.Tracer) command.Handler {
	if tracer == nil {
		tracer = platformotel.Tracer()
	}
	return func(c *command.Context, next command.Next) error {
		key, _ := KeyFor(c.Interaction())
		interaction := c.Interaction()
		parent := c.Context()
		ctx, span := tracer.Start(parent, "command "+string(key),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("command.key", string(key)),
				attribute.String("command.trace_id", requestctx.TraceIDFromContext(parent)),
				attribute.String("discord.interaction_id", interaction.ID),
				attribute.String("discord.guild_id", interaction.GuildID),
				attribute.String("discord.user_id", requestctx.UserIDFromContext(parent)),
			),
		)
		defer span.End()

		c.SetContext(ctx)
		err := next()
		c.SetContext(parent)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

// Audit appends one invocation record per run. Store failures are logged
// and never change the chain result.
func Audit(store storage.InvocationStore, logger *log.Logger) command.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *command.Context, next command.Next) error {
		start := time.Now()
		err := next()

		record := invocationRecord(c, start, err)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Context()), timeouts.StoreWrite)
		defer cancel()
		if storeErr := store.AppendInvocation(ctx, record); storeErr != nil {
			logger.Warn("append invocation", "trace_id", record.TraceID, "err", storeErr)
		}
		return err
	}
}

func invocationRecord(c *command.Context, start time.Time, err error) storage.Invocation {
	interaction := c.Interaction()
	key, _ := KeyFor(interaction)
	traceID := requestctx.TraceIDFromContext(c.Context())
	if traceID == "" {
		traceID = id.NewTraceID()
	}
	record := storage.Invocation{
		TraceID:       traceID,
		CommandKey:    string(key),
		InteractionID: interaction.ID,
		GuildID:       interaction.GuildID,
		ChannelID:     interaction.ChannelID,
		Locale:        c.Locale(),
		Outcome:       storage.OutcomeOK,
		Duration:      time.Since(start),
		CreatedAt:     start.UTC(),
	}
	if invoker := interaction.Invoker(); invoker != nil {
		record.UserID = invoker.ID
	}
	if err != nil {
		record.Outcome = storage.OutcomeFailed
		record.ErrorKind = string(failureKind(err))
		record.ErrorMessage = err.Error()
	}
	if span := trace.SpanContextFromContext(c.Context()); span.IsValid() {
		record.SpanTraceID = span.TraceID().String()
		record.SpanID = span.SpanID().String()
	}
	return record
}

// RequireUsers lets only the listed user ids continue. Anyone else gets an
// ephemeral refusal and the chain stops.
func RequireUsers(ids ...string) command.Handler {
	allowed := make(map[string]struct{}, len(ids))
	for _, userID := range ids {
		if userID != "" {
			allowed[userID] = struct{}{}
		}
	}
	return func(c *command.Context, next command.Next) error {
		if invoker := c.Interaction().Invoker(); invoker != nil {
			if _, ok := allowed[invoker.ID]; ok {
				return next()
			}
		}
		text := errori18n.GetCatalog(c.Locale()).Format("FORBIDDEN", nil)
		return c.Respond(discord.MessageData{
			Embeds: []discord.Embed{discord.ErrorEmbed(text)},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}
