// Package id generates identifiers for invocations and audit records.
package id

import (
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random UUIDv4 encoded as 26 lowercase base32 characters.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(idEncoding.EncodeToString(u[:])), nil
}

// NewTraceID returns a random UUIDv4 as 32 lowercase hex characters, the
// form shown to users when a command fails.
func NewTraceID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
