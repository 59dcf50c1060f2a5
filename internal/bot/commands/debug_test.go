package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/bot/fingerprint"
	"github.com/louisbranch/commandeer/internal/bot/registry"
	"github.com/louisbranch/commandeer/internal/bot/storage"
	"github.com/louisbranch/commandeer/internal/discord"
)

type fakeStore struct {
	invocations map[string]storage.Invocation
	syncRun     *storage.SyncRun
}

func (s *fakeStore) AppendInvocation(context.Context, storage.Invocation) error { return nil }

func (s *fakeStore) GetInvocationByTrace(_ context.Context, traceID string) (storage.Invocation, error) {
	record, ok := s.invocations[traceID]
	if !ok {
		return storage.Invocation{}, storage.ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) ListRecentInvocations(context.Context, int) ([]storage.Invocation, error) {
	return nil, nil
}

func (s *fakeStore) AppendSyncRun(context.Context, storage.SyncRun) error { return nil }

func (s *fakeStore) LatestSyncRun(_ context.Context, scope string) (storage.SyncRun, error) {
	if s.syncRun == nil || s.syncRun.Scope != scope {
		return storage.SyncRun{}, storage.ErrNotFound
	}
	return *s.syncRun, nil
}

type staticView struct {
	keys []registry.Key
	defs []discord.ApplicationCommand
}

func (v staticView) Keys() []registry.Key                       { return v.keys }
func (v staticView) Definitions() []discord.ApplicationCommand { return v.defs }

const devID = "dev-1"

func debugNode(store *fakeStore, view RegistryView) *command.Node {
	return Debug(DebugOptions{
		Registry:     func() RegistryView { return view },
		Invocations:  store,
		SyncRuns:     store,
		Scope:        "guild:42",
		DeveloperIDs: []string{devID},
	})
}

func subcommand(name string, options ...discord.InteractionDataOption) discord.InteractionDataOption {
	return discord.InteractionDataOption{Name: name, Type: discord.OptionTypeSubcommand, Options: options}
}

func TestDebugRegistry(t *testing.T) {
	defs := []discord.ApplicationCommand{{Name: "ping", Description: "Ping"}}
	digest, err := fingerprint.Many(defs)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	store := &fakeStore{syncRun: &storage.SyncRun{
		Scope:             "guild:42",
		Updated:           true,
		RemoteFingerprint: "remote-digest",
		CreatedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	view := staticView{keys: []registry.Key{"debug.registry", "ping"}, defs: defs}

	responder, err := invoke(t, []*command.Node{debugNode(store, view)}, userInteraction(devID, "debug", subcommand("registry")))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	reply := responder.last()
	if reply.Flags&discord.MessageFlagEphemeral == 0 || len(reply.Embeds) != 1 {
		t.Fatalf("reply = %+v", reply)
	}
	text := reply.Embeds[0].Description
	for _, want := range []string{"debug.registry\nping", digest, "guild:42", "remote-digest", "2026-03-01T12:00:00Z"} {
		if !strings.Contains(text, want) {
			t.Fatalf("reply %q missing %q", text, want)
		}
	}
}

func TestDebugRegistryWithoutSync(t *testing.T) {
	view := staticView{keys: []registry.Key{"ping"}}
	responder, err := invoke(t, []*command.Node{debugNode(&fakeStore{}, view)}, userInteraction(devID, "debug", subcommand("registry")))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if text := responder.last().Embeds[0].Description; !strings.Contains(text, "No sync recorded for `guild:42`.") {
		t.Fatalf("reply = %q", text)
	}
}

func TestDebugRegistryNotReady(t *testing.T) {
	node := Debug(DebugOptions{
		Registry:     func() RegistryView { return nil },
		DeveloperIDs: []string{devID},
	})
	_, err := invoke(t, []*command.Node{node}, userInteraction(devID, "debug", subcommand("registry")))
	if !errors.Is(err, errRegistryNotReady) {
		t.Fatalf("err = %v, want %v", err, errRegistryNotReady)
	}
}

func TestDebugTrace(t *testing.T) {
	traceID := "0123456789abcdef0123456789abcdef"
	store := &fakeStore{invocations: map[string]storage.Invocation{
		traceID: {
			TraceID:      traceID,
			CommandKey:   "emojis",
			Outcome:      storage.OutcomeFailed,
			ErrorKind:    "HANDLER_FAILURE",
			ErrorMessage: "archive emojis: boom",
			Duration:     1500 * time.Millisecond,
			CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}}

	responder, err := invoke(t, []*command.Node{debugNode(store, staticView{})},
		userInteraction(devID, "debug", subcommand("trace", stringArg("id", strings.ToUpper(traceID)))))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := responder.last().Embeds[0].Description
	for _, want := range []string{traceID, "`emojis`", "`failed`", "`HANDLER_FAILURE`", "archive emojis: boom", "`1.5s`"} {
		if !strings.Contains(text, want) {
			t.Fatalf("reply %q missing %q", text, want)
		}
	}

	responder, err = invoke(t, []*command.Node{debugNode(store, staticView{})},
		userInteraction(devID, "debug", subcommand("trace", stringArg("id", "ffffffffffffffffffffffffffffffff"))))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if text := responder.last().Embeds[0].Description; !strings.Contains(text, "No invocation recorded") {
		t.Fatalf("reply = %q", text)
	}
}

func TestDebugIsDeveloperOnly(t *testing.T) {
	view := staticView{keys: []registry.Key{"ping"}}
	responder, err := invoke(t, []*command.Node{debugNode(&fakeStore{}, view)}, userInteraction("stranger", "debug", subcommand("registry")))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if text := responder.last().Embeds[0].Description; text != "You are not allowed to use this command." {
		t.Fatalf("reply = %q", text)
	}
}
