// Package errors provides the closed set of failure kinds raised by the
// command pipeline, with i18n support for user-facing messages.
package errors

// Kind is a machine-readable failure class.
type Kind string

const (
	// KindUnknown represents an error that carries no pipeline kind.
	KindUnknown Kind = "UNKNOWN"

	// KindMultipleNextInvocation means a middleware invoked its continuation
	// more than once in a single pass.
	KindMultipleNextInvocation Kind = "MULTIPLE_NEXT_INVOCATION"

	// KindHandlerFailure wraps any error returned (or panic raised) by a
	// middleware or terminal handler.
	KindHandlerFailure Kind = "HANDLER_FAILURE"

	// KindLookupMiss means an inbound dispatch key has no registered path.
	KindLookupMiss Kind = "LOOKUP_MISS"

	// KindSyncFailure means fetching or publishing the remote command
	// catalog failed.
	KindSyncFailure Kind = "SYNC_FAILURE"
)

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindMultipleNextInvocation,
		KindHandlerFailure,
		KindLookupMiss,
		KindSyncFailure,
	}
}

// Fatal reports whether errors of this kind must abort process startup.
func (k Kind) Fatal() bool {
	return k == KindSyncFailure
}

// String returns the kind identifier.
func (k Kind) String() string {
	return string(k)
}
