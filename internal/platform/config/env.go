// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Environment names the deployment mode.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// UnmarshalText accepts the common short forms of each mode.
func (e *Environment) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "development", "dev":
		*e = EnvDevelopment
	case "production", "prod", "":
		*e = EnvProduction
	default:
		return fmt.Errorf("unknown environment %q", string(text))
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (e Environment) IsDevelopment() bool { return e == EnvDevelopment }
