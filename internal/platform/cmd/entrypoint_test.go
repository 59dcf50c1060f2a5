package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigFromArgsFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	cfg := testConfig{}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Func("address", "address", func(v string) error {
		cfg.Address = v
		return nil
	})
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("expected flag address, got %q", cfg.Address)
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("expected env mode, got %q", cfg.Mode)
	}
}

func TestParseConfigRejectsNil(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected nil parser error")
	}
}

func TestRunWithTelemetry(t *testing.T) {
	t.Setenv("COMMANDEER_OTEL_ENDPOINT", "")

	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceBot, nil); err == nil {
		t.Fatal("expected missing run function error")
	}

	boom := errors.New("boom")
	var ran bool
	err := RunWithTelemetry(context.Background(), ServiceBot, func(context.Context) error {
		ran = true
		return boom
	})
	if !ran || !errors.Is(err, boom) {
		t.Fatalf("ran = %v, err = %v", ran, err)
	}
}
