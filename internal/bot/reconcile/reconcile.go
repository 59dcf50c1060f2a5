// Package reconcile brings a remote command catalog in line with the locally
// declared definitions.
package reconcile

import (
	"context"
	"errors"

	"github.com/louisbranch/commandeer/internal/bot/fingerprint"
	"github.com/louisbranch/commandeer/internal/discord"
	apperrors "github.com/louisbranch/commandeer/internal/platform/errors"
)

// Catalog is a remote command catalog with bulk-replace semantics.
type Catalog interface {
	List(ctx context.Context) ([]discord.ApplicationCommand, error)
	ReplaceAll(ctx context.Context, cmds []discord.ApplicationCommand) error
}

// Funcs adapts plain functions to Catalog.
type Funcs struct {
	ListFunc       func(ctx context.Context) ([]discord.ApplicationCommand, error)
	ReplaceAllFunc func(ctx context.Context, cmds []discord.ApplicationCommand) error
}

func (f Funcs) List(ctx context.Context) ([]discord.ApplicationCommand, error) {
	if f.ListFunc == nil {
		return nil, errors.New("list is not configured")
	}
	return f.ListFunc(ctx)
}

func (f Funcs) ReplaceAll(ctx context.Context, cmds []discord.ApplicationCommand) error {
	if f.ReplaceAllFunc == nil {
		return errors.New("replace is not configured")
	}
	return f.ReplaceAllFunc(ctx, cmds)
}

// Result reports what a reconciliation did.
type Result struct {
	Updated           bool
	LocalFingerprint  string
	RemoteFingerprint string
}

// Reconcile fetches the remote catalog and replaces it with local when their
// fingerprints differ. It never retries; running it again after a failure is
// safe because a matching catalog is left untouched.
func Reconcile(ctx context.Context, local []discord.ApplicationCommand, catalog Catalog) (Result, error) {
	if catalog == nil {
		return Result{}, apperrors.New(apperrors.KindSyncFailure, "catalog is required")
	}
	localFingerprint, err := fingerprint.Many(local)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.KindSyncFailure, "fingerprint local commands", err)
	}

	remote, err := catalog.List(ctx)
	if err != nil {
		return Result{LocalFingerprint: localFingerprint}, apperrors.Wrap(apperrors.KindSyncFailure, "fetch remote commands", err)
	}
	remoteFingerprint, err := fingerprint.Many(remote)
	if err != nil {
		return Result{LocalFingerprint: localFingerprint}, apperrors.Wrap(apperrors.KindSyncFailure, "fingerprint remote commands", err)
	}

	result := Result{LocalFingerprint: localFingerprint, RemoteFingerprint: remoteFingerprint}
	if localFingerprint == remoteFingerprint {
		return result, nil
	}
	if local == nil {
		local = []discord.ApplicationCommand{}
	}
	if err := catalog.ReplaceAll(ctx, local); err != nil {
		return result, apperrors.Wrap(apperrors.KindSyncFailure, "publish commands", err)
	}
	result.Updated = true
	return result, nil
}
