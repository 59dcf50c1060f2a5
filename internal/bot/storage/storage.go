// Package storage defines persistence contracts for the bot's audit trail.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a record with the same key exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Invocation is one audited command run, keyed by its trace id.
type Invocation struct {
	TraceID       string
	CommandKey    string
	InteractionID string
	GuildID       string
	ChannelID     string
	UserID        string
	Locale        string
	Outcome       Outcome
	ErrorKind     string
	ErrorMessage  string
	SpanTraceID   string
	SpanID        string
	Duration      time.Duration
	CreatedAt     time.Time
}

// SyncRun records one catalog reconciliation.
type SyncRun struct {
	Scope             string
	Updated           bool
	LocalFingerprint  string
	RemoteFingerprint string
	CreatedAt         time.Time
}

// InvocationStore persists invocation audit records.
type InvocationStore interface {
	AppendInvocation(ctx context.Context, invocation Invocation) error
	GetInvocationByTrace(ctx context.Context, traceID string) (Invocation, error)
	ListRecentInvocations(ctx context.Context, limit int) ([]Invocation, error)
}

// SyncRunStore persists reconciliation results.
type SyncRunStore interface {
	AppendSyncRun(ctx context.Context, run SyncRun) error
	LatestSyncRun(ctx context.Context, scope string) (SyncRun, error)
}
