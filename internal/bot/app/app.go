// Package app composes the bot: the audit store, the platform client, the
// command registry, catalog synchronization and the inbound transports.
package app

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/commandeer/internal/bot/commands"
	"github.com/louisbranch/commandeer/internal/bot/dispatch"
	"github.com/louisbranch/commandeer/internal/bot/httpapi"
	"github.com/louisbranch/commandeer/internal/bot/reconcile"
	"github.com/louisbranch/commandeer/internal/bot/registry"
	"github.com/louisbranch/commandeer/internal/bot/storage"
	"github.com/louisbranch/commandeer/internal/bot/storage/sqlite"
	"github.com/louisbranch/commandeer/internal/discord/rest"
	"github.com/louisbranch/commandeer/internal/platform/config"
	platformgrpc "github.com/louisbranch/commandeer/internal/platform/grpc"
	"github.com/louisbranch/commandeer/internal/platform/timeouts"
)

// Config holds everything the bot needs to start.
type Config struct {
	Environment config.Environment
	AppID       string
	BotToken    config.Secret
	// PublicKey is the hex-encoded ed25519 key interactions are signed with.
	PublicKey string
	// TestGuildID scopes the catalog in development.
	TestGuildID  string
	DeveloperIDs []string

	HTTPAddr   string
	HealthAddr string
	DBPath     string
	APIBaseURL string

	Logger *log.Logger
	// HTTPClient overrides the client used for platform API calls.
	HTTPClient *http.Client
	// EmojiFetcher overrides how emoji images are downloaded.
	EmojiFetcher commands.Fetcher
	Now          func() time.Time
}

// GuildID is the catalog scope: the test guild in development, global
// otherwise.
func (c Config) GuildID() string {
	if c.Environment.IsDevelopment() {
		return strings.TrimSpace(c.TestGuildID)
	}
	return ""
}

// Validate reports every missing or malformed setting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AppID) == "" {
		errs = append(errs, errors.New("application id is required"))
	}
	if c.BotToken.Empty() {
		errs = append(errs, errors.New("bot token is required"))
	}
	if _, err := parsePublicKey(c.PublicKey); err != nil {
		errs = append(errs, err)
	}
	if c.Environment.IsDevelopment() && strings.TrimSpace(c.TestGuildID) == "" {
		errs = append(errs, errors.New("test guild id is required in development"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	return errors.Join(errs...)
}

func parsePublicKey(raw string) (ed25519.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("public key is required")
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return ed25519.PublicKey(key), nil
}

type closer struct {
	name  string
	close func() error
}

// App is a started bot. Its listeners are bound by New; Serve runs them.
type App struct {
	cfg      Config
	logger   *log.Logger
	store    *sqlite.Store
	catalog  *rest.Catalog
	registry *registry.Registry
	http     *httpapi.Server
	health   *platformgrpc.HealthServer

	closeOnce sync.Once
	closeErr  error
	closers   []closer
}

// New opens the audit store, builds the registry and binds both listeners.
// The returned App must be closed.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	publicKey, _ := parsePublicKey(cfg.PublicKey)
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	a.store = store
	a.onClose("audit store", store.Close)

	var restOpts []rest.Option
	if cfg.HTTPClient != nil {
		restOpts = append(restOpts, rest.WithHTTPClient(cfg.HTTPClient))
	}
	client := rest.New(cfg.APIBaseURL, cfg.BotToken.Reveal(), restOpts...)
	a.catalog = client.Catalog(cfg.AppID, cfg.GuildID())

	reg, err := registry.NewBuilder().
		Use(
			dispatch.Logging(logger),
			dispatch.Tracing(nil),
			dispatch.Audit(store, logger),
		).
		Register(commands.All(commands.Options{
			Now: cfg.Now,
			Emojis: commands.EmojisOptions{
				Fetcher: cfg.EmojiFetcher,
				Logger:  logger,
				Now:     cfg.Now,
			},
			Debug: commands.DebugOptions{
				Registry:     a.registryView,
				Invocations:  store,
				SyncRuns:     store,
				Scope:        a.catalog.Scope(),
				DeveloperIDs: cfg.DeveloperIDs,
			},
		})...).
		Build()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build registry: %w", err), a.Close())
	}
	a.registry = reg

	endpoint, err := httpapi.New(httpapi.Options{
		PublicKey:  publicKey,
		Dispatcher: dispatch.New(reg, dispatch.Options{Logger: logger}),
		Client:     client,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create interactions endpoint: %w", err), a.Close())
	}
	httpServer, err := httpapi.NewServer(cfg.HTTPAddr, endpoint, logger)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	a.http = httpServer
	a.onClose("interactions listener", httpServer.Close)

	health, err := platformgrpc.NewHealthServer(cfg.HealthAddr, logger)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	a.health = health
	a.onClose("health server", func() error {
		health.Close()
		return nil
	})
	return a, nil
}

func (a *App) registryView() commands.RegistryView {
	if a.registry == nil {
		return nil
	}
	return a.registry
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

// Registry returns the built command registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// HTTPAddr is the bound interactions address.
func (a *App) HTTPAddr() string { return a.http.Addr() }

// HealthAddr is the bound gRPC health address.
func (a *App) HealthAddr() string { return a.health.Addr() }

// Sync reconciles the remote catalog with the registry and records the run.
// A failed record is logged, never returned.
func (a *App) Sync(ctx context.Context) (reconcile.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Sync)
	defer cancel()

	scope := a.catalog.Scope()
	result, err := reconcile.Reconcile(ctx, a.registry.Definitions(), a.catalog)
	if err != nil {
		return result, fmt.Errorf("reconcile %s commands: %w", scope, err)
	}
	if result.Updated {
		a.logger.Info(fmt.Sprintf("commands updated due to fingerprint mismatch (%s -> %s)", result.RemoteFingerprint, result.LocalFingerprint), "scope", scope)
	} else {
		a.logger.Info("no command changes detected", "scope", scope, "fingerprint", result.LocalFingerprint)
	}

	writeCtx, writeCancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.StoreWrite)
	defer writeCancel()
	run := storage.SyncRun{
		Scope:             scope,
		Updated:           result.Updated,
		LocalFingerprint:  result.LocalFingerprint,
		RemoteFingerprint: result.RemoteFingerprint,
		CreatedAt:         a.now(),
	}
	if err := a.store.AppendSyncRun(writeCtx, run); err != nil {
		a.logger.Warn("record sync run", "scope", scope, "err", err)
	}
	return result, nil
}

func (a *App) now() time.Time {
	if a.cfg.Now != nil {
		return a.cfg.Now()
	}
	return time.Now()
}

// Serve reports SERVING on the health server and runs both transports until
// ctx ends or either fails.
func (a *App) Serve(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	a.health.SetServing("", true)
	group.Go(func() error {
		return a.http.Serve(groupCtx)
	})
	group.Go(func() error {
		return a.health.Serve(groupCtx)
	})
	err := group.Wait()
	a.health.SetServing("", false)
	return err
}

// Close runs every shutdown task in series, newest first, and joins their
// errors. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		for i := len(a.closers) - 1; i >= 0; i-- {
			task := a.closers[i]
			if err := task.close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", task.name, err))
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// Run starts the bot: it synchronizes the catalog, failing fast when that
// is not possible, and then serves until ctx ends.
func Run(ctx context.Context, cfg Config) (err error) {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	if _, err := a.Sync(ctx); err != nil {
		return err
	}
	return a.Serve(ctx)
}
