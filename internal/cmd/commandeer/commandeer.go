// Package commandeer parses bot command flags and starts the bot.
package commandeer

import (
	"context"
	"flag"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/louisbranch/commandeer/internal/bot/app"
	entrypoint "github.com/louisbranch/commandeer/internal/platform/cmd"
	"github.com/louisbranch/commandeer/internal/platform/config"
	platformgrpc "github.com/louisbranch/commandeer/internal/platform/grpc"
	"github.com/louisbranch/commandeer/internal/platform/logging"
)

const healthcheckTimeout = 3 * time.Second

// Config holds bot command configuration.
type Config struct {
	Environment config.Environment `env:"COMMANDEER_ENV"             envDefault:"production"`
	AppID       string             `env:"DISCORD_APP_ID"`
	BotToken    config.Secret      `env:"DISCORD_BOT_TOKEN"`
	PublicKey   string             `env:"DISCORD_PUBLIC_KEY"`
	TestGuildID string             `env:"TEST_GUILD_ID"`
	DevIDs      []string           `env:"DEV_IDS"                    envSeparator:","`
	HTTPAddr    string             `env:"COMMANDEER_HTTP_ADDR"       envDefault:":8080"`
	HealthAddr  string             `env:"COMMANDEER_HEALTH_ADDR"     envDefault:":8081"`
	DBPath      string             `env:"COMMANDEER_DB_PATH"         envDefault:"data/commandeer.db"`
	APIBaseURL  string             `env:"COMMANDEER_DISCORD_API_URL" envDefault:"https://discord.com/api/v10"`
	LogLevel    string             `env:"LOG_LEVEL"`
	LogFormat   string             `env:"COMMANDEER_LOG_FORMAT"`

	// Healthcheck probes a running bot instead of starting one.
	Healthcheck bool
}

// ParseConfig parses environment and flags into a Config. The bot token is
// only read from the environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.Func("env", "deployment mode (development or production)", func(value string) error {
		return cfg.Environment.UnmarshalText([]byte(value))
	})
	fs.StringVar(&cfg.AppID, "app-id", cfg.AppID, "application id")
	fs.StringVar(&cfg.PublicKey, "public-key", cfg.PublicKey, "hex-encoded interactions public key")
	fs.StringVar(&cfg.TestGuildID, "test-guild-id", cfg.TestGuildID, "guild commands are published to in development")
	fs.Func("dev-ids", "comma-separated developer user ids", func(value string) error {
		cfg.DevIDs = splitList(value)
		return nil
	})
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "interactions HTTP listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "audit database path")
	fs.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "platform API base URL")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text or json)")
	fs.BoolVar(&cfg.Healthcheck, "healthcheck", false, "probe the health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.DevIDs = splitList(strings.Join(cfg.DevIDs, ","))
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Run builds the bot and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      logging.Format(cfg.LogFormat),
		Development: cfg.Environment.IsDevelopment(),
		Prefix:      entrypoint.ServiceBot,
	})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	logger.Info("starting", "env", string(cfg.Environment), "app_id", cfg.AppID, "token", cfg.BotToken)

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceBot, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		if err := app.Run(ctx, app.Config{
			Environment:  cfg.Environment,
			AppID:        cfg.AppID,
			BotToken:     cfg.BotToken,
			PublicKey:    cfg.PublicKey,
			TestGuildID:  cfg.TestGuildID,
			DeveloperIDs: cfg.DevIDs,
			HTTPAddr:     cfg.HTTPAddr,
			HealthAddr:   cfg.HealthAddr,
			DBPath:       cfg.DBPath,
			APIBaseURL:   cfg.APIBaseURL,
			Logger:       logger,
		}); err != nil {
			return fmt.Errorf("serve bot: %w", err)
		}
		return nil
	})
}

// Healthcheck reports whether the bot at cfg.HealthAddr is SERVING.
func Healthcheck(ctx context.Context, cfg Config) error {
	return platformgrpc.Probe(ctx, dialAddr(cfg.HealthAddr), "", healthcheckTimeout, nil)
}

// dialAddr turns a listen address into one a local client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
