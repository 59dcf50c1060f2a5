package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/bot/dispatch"
	"github.com/louisbranch/commandeer/internal/bot/fingerprint"
	"github.com/louisbranch/commandeer/internal/bot/registry"
	"github.com/louisbranch/commandeer/internal/bot/storage"
	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/platform/i18n"
)

// RegistryView is the read side of a built registry.
type RegistryView interface {
	Keys() []registry.Key
	Definitions() []discord.ApplicationCommand
}

// DebugOptions configures the developer-only debug command.
type DebugOptions struct {
	// Registry returns the built registry. It is read at invocation time
	// because the registry is built after this command is declared.
	Registry    func() RegistryView
	Invocations storage.InvocationStore
	SyncRuns    storage.SyncRunStore
	// Scope is the catalog scope whose last sync is reported.
	Scope        string
	DeveloperIDs []string
}

var errRegistryNotReady = errors.New("registry is not built yet")

// Debug returns the developer diagnostics command with its registry and
// trace subcommands. Only DeveloperIDs may run it.
func Debug(opts DebugOptions) *command.Node {
	return command.New("debug", "Developer diagnostics").
		SetContexts(0).
		Handle(dispatch.RequireUsers(opts.DeveloperIDs...)).
		AddChild(command.NewSubcommand("registry", "Show registered keys and the local fingerprint").
			Handle(func(c *command.Context, _ command.Next) error {
				return debugRegistry(c, opts)
			})).
		AddChild(command.AddOptions(command.NewSubcommand("trace", "Look up an invocation by trace id"),
			command.String("id", "Trace id shown in an error reply", command.Required(), command.MinLength(32), command.MaxLength(32)),
		).Handle(func(c *command.Context, _ command.Next) error {
			return debugTrace(c, opts)
		}))
}

func debugRegistry(c *command.Context, opts DebugOptions) error {
	if opts.Registry == nil {
		return errRegistryNotReady
	}
	view := opts.Registry()
	if view == nil {
		return errRegistryNotReady
	}
	keys := view.Keys()
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, string(key))
	}
	digest, err := fingerprint.Many(view.Definitions())
	if err != nil {
		return fmt.Errorf("fingerprint registry: %w", err)
	}

	printer := i18n.Printer(c.Locale())
	text := printer.Sprintf("debug.registry", strings.Join(lines, "\n"), digest)
	if opts.SyncRuns != nil {
		run, err := opts.SyncRuns.LatestSyncRun(c.Context(), opts.Scope)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			text += "\n" + printer.Sprintf("debug.no_sync", opts.Scope)
		case err != nil:
			return fmt.Errorf("load latest sync run: %w", err)
		default:
			text += "\n" + printer.Sprintf("debug.last_sync", run.Scope, run.Updated, run.RemoteFingerprint, run.CreatedAt.UTC().Format(time.RFC3339))
		}
	}
	return c.Respond(ephemeralInfo(text))
}

func debugTrace(c *command.Context, opts DebugOptions) error {
	if opts.Invocations == nil {
		return errors.New("invocation store is not configured")
	}
	traceID := strings.ToLower(strings.TrimSpace(stringOption(c, "id", "")))
	printer := i18n.Printer(c.Locale())

	record, err := opts.Invocations.GetInvocationByTrace(c.Context(), traceID)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Respond(ephemeralInfo(printer.Sprintf("debug.trace_missing", traceID)))
	}
	if err != nil {
		return fmt.Errorf("load invocation: %w", err)
	}
	text := printer.Sprintf("debug.trace",
		record.TraceID,
		record.CommandKey,
		string(record.Outcome),
		orDash(record.ErrorKind),
		orDash(record.ErrorMessage),
		record.Duration.Round(time.Millisecond).String(),
		record.CreatedAt.UTC().Format(time.RFC3339),
	)
	return c.Respond(ephemeralInfo(text))
}

func ephemeralInfo(text string) discord.MessageData {
	return discord.MessageData{
		Embeds: []discord.Embed{discord.InfoEmbed(text)},
		Flags:  discord.MessageFlagEphemeral,
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
