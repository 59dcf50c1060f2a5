package app

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/commandeer/internal/bot/httpapi"
	"github.com/louisbranch/commandeer/internal/bot/storage"
	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/platform/config"
	platformgrpc "github.com/louisbranch/commandeer/internal/platform/grpc"
	"github.com/louisbranch/commandeer/internal/platform/logging"
)

const (
	testAppID   = "app-1"
	testGuildID = "guild-1"
)

// fakeDiscord serves one guild catalog and remembers what was published.
// Like the platform, it omits localization maps from listings unless they
// are requested.
type fakeDiscord struct {
	mu          sync.Mutex
	catalog     []byte
	lists       int
	puts        int
	unlocalized int
	failAll     bool
}

func (f *fakeDiscord) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		http.Error(w, `{"message":"unavailable","code":0}`, http.StatusServiceUnavailable)
		return
	}
	if r.URL.Path != "/applications/"+testAppID+"/guilds/"+testGuildID+"/commands" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		f.lists++
		if f.catalog == nil {
			_, _ = w.Write([]byte("[]"))
			return
		}
		if r.URL.Query().Get("with_localizations") != "true" {
			f.unlocalized++
			_, _ = w.Write(stripLocalizations(f.catalog))
			return
		}
		_, _ = w.Write(f.catalog)
	case http.MethodPut:
		f.puts++
		body, _ := io.ReadAll(r.Body)
		f.catalog = body
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func stripLocalizations(raw []byte) []byte {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return raw
	}
	var strip func(any)
	strip = func(v any) {
		switch v := v.(type) {
		case map[string]any:
			delete(v, "name_localizations")
			delete(v, "description_localizations")
			for _, child := range v {
				strip(child)
			}
		case []any:
			for _, child := range v {
				strip(child)
			}
		}
	}
	strip(value)
	out, err := json.Marshal(value)
	if err != nil {
		return raw
	}
	return out
}

func (f *fakeDiscord) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = failing
}

func (f *fakeDiscord) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.puts
}

type testApp struct {
	app     *App
	discord *fakeDiscord
	private ed25519.PrivateKey
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	fake := &fakeDiscord{}
	api := httptest.NewServer(fake)
	t.Cleanup(api.Close)

	a, err := New(context.Background(), Config{
		Environment: config.EnvDevelopment,
		AppID:       testAppID,
		BotToken:    config.Secret("bot-token"),
		PublicKey:   hex.EncodeToString(public),
		TestGuildID: testGuildID,
		HTTPAddr:    "127.0.0.1:0",
		HealthAddr:  "127.0.0.1:0",
		DBPath:      filepath.Join(t.TempDir(), "commandeer.db"),
		APIBaseURL:  api.URL,
		Logger:      logging.Discard(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("close app: %v", err)
		}
	})
	return &testApp{app: a, discord: fake, private: private}
}

func TestConfigValidate(t *testing.T) {
	public, _, _ := ed25519.GenerateKey(rand.Reader)
	valid := Config{
		AppID:     testAppID,
		BotToken:  config.Secret("token"),
		PublicKey: hex.EncodeToString(public),
		DBPath:    "data/commandeer.db",
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing app id", mutate: func(c *Config) { c.AppID = " " }, want: "application id"},
		{name: "missing token", mutate: func(c *Config) { c.BotToken = "" }, want: "bot token"},
		{name: "bad key", mutate: func(c *Config) { c.PublicKey = "zz" }, want: "decode public key"},
		{name: "short key", mutate: func(c *Config) { c.PublicKey = "abcd" }, want: "32 bytes"},
		{name: "dev without guild", mutate: func(c *Config) { c.Environment = config.EnvDevelopment }, want: "test guild"},
		{name: "missing db path", mutate: func(c *Config) { c.DBPath = "" }, want: "database path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("validate = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGuildIDFollowsEnvironment(t *testing.T) {
	cfg := Config{TestGuildID: testGuildID, Environment: config.EnvProduction}
	if got := cfg.GuildID(); got != "" {
		t.Fatalf("production guild = %q", got)
	}
	cfg.Environment = config.EnvDevelopment
	if got := cfg.GuildID(); got != testGuildID {
		t.Fatalf("development guild = %q", got)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSyncPublishesOnceThenIsStable(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()

	first, err := ta.app.Sync(ctx)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if !first.Updated {
		t.Fatal("expected the empty remote catalog to be replaced")
	}
	second, err := ta.app.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Updated {
		t.Fatal("expected no update once the catalog matches")
	}
	if second.LocalFingerprint != second.RemoteFingerprint {
		t.Fatalf("fingerprints differ: %s != %s", second.LocalFingerprint, second.RemoteFingerprint)
	}
	if lists, puts := ta.discord.counts(); lists != 2 || puts != 1 {
		t.Fatalf("lists = %d, puts = %d", lists, puts)
	}
	ta.discord.mu.Lock()
	unlocalized := ta.discord.unlocalized
	ta.discord.mu.Unlock()
	if unlocalized != 0 {
		t.Fatalf("%d listings did not request localizations", unlocalized)
	}

	third, err := ta.app.Sync(ctx)
	if err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if third.Updated {
		t.Fatal("expected localized commands to stay in sync")
	}
	if _, puts := ta.discord.counts(); puts != 1 {
		t.Fatalf("puts = %d after steady-state sync", puts)
	}

	run, err := ta.app.store.LatestSyncRun(ctx, "guild:"+testGuildID)
	if err != nil {
		t.Fatalf("latest sync run: %v", err)
	}
	if run.Updated || run.LocalFingerprint != second.LocalFingerprint {
		t.Fatalf("unexpected sync run: %+v", run)
	}
}

func TestSyncFailureIsReturned(t *testing.T) {
	ta := newTestApp(t)
	ta.discord.setFailing(true)
	if _, err := ta.app.Sync(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	_, err := ta.app.store.LatestSyncRun(context.Background(), "guild:"+testGuildID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("latest sync run err = %v, want not found", err)
	}
}

func TestServeAnswersSignedCommand(t *testing.T) {
	ta := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- ta.app.Serve(ctx) }()

	if err := platformgrpc.Probe(ctx, ta.app.HealthAddr(), "", 5*time.Second, nil); err != nil {
		t.Fatalf("health probe: %v", err)
	}

	body := `{"id":"175928847299117063","application_id":"app-1","type":2,"token":"tok-1",` +
		`"guild_id":"guild-1","locale":"en-US","member":{"user":{"id":"user-1","username":"ada"}},` +
		`"data":{"name":"ping"}}`
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, "http://"+ta.app.HTTPAddr()+httpapi.InteractionsPath, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(discord.HeaderSignature, hex.EncodeToString(ed25519.Sign(ta.private, []byte(timestamp+body))))
	req.Header.Set(discord.HeaderTimestamp, timestamp)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post interaction: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var reply discord.InteractionResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Type != discord.ResponseTypeChannelMessageWithSource || reply.Data == nil || !strings.HasPrefix(reply.Data.Content, "Pong!") {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	var audited []storage.Invocation
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		audited, err = ta.app.store.ListRecentInvocations(context.Background(), 10)
		if err != nil {
			t.Fatalf("list invocations: %v", err)
		}
		if len(audited) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(audited) != 1 || audited[0].CommandKey != "ping" || audited[0].Outcome != storage.OutcomeOK {
		t.Fatalf("unexpected audit trail: %+v", audited)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestRunFailsWhenSyncFails(t *testing.T) {
	public, _, _ := ed25519.GenerateKey(rand.Reader)
	api := httptest.NewServer(&fakeDiscord{failAll: true})
	defer api.Close()

	err := Run(context.Background(), Config{
		Environment: config.EnvDevelopment,
		AppID:       testAppID,
		BotToken:    config.Secret("bot-token"),
		PublicKey:   hex.EncodeToString(public),
		TestGuildID: testGuildID,
		HTTPAddr:    "127.0.0.1:0",
		HealthAddr:  "127.0.0.1:0",
		DBPath:      filepath.Join(t.TempDir(), "commandeer.db"),
		APIBaseURL:  api.URL,
		Logger:      logging.Discard(),
	})
	if err == nil || !strings.Contains(err.Error(), "reconcile") {
		t.Fatalf("run = %v, want reconcile failure", err)
	}
}
