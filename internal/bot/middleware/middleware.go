// Package middleware composes onion-style handler chains.
//
// Each handler receives the invocation value and a continuation. Calling the
// continuation runs the rest of the chain and returns its error, so code
// placed after next() observes the outcome of every inner layer.
package middleware

import (
	"fmt"

	apperrors "github.com/louisbranch/commandeer/internal/platform/errors"
)

// Next runs the remainder of the chain.
type Next func() error

// Func is one layer of a chain.
type Func[C any] func(c C, next Next) error

// ErrMultipleNext is returned by a continuation invoked a second time.
var ErrMultipleNext = apperrors.New(apperrors.KindMultipleNextInvocation, "next() called multiple times")

// Compose returns a function running handlers in order, then terminal.
// Nil handlers are skipped and a nil terminal completes successfully.
// Panics are recovered at the layer that raised them and surface as
// HandlerFailure errors from that layer's caller.
func Compose[C any](handlers []Func[C], terminal Func[C]) func(C) error {
	chain := make([]Func[C], 0, len(handlers)+1)
	for _, h := range handlers {
		if h != nil {
			chain = append(chain, h)
		}
	}
	if terminal != nil {
		chain = append(chain, terminal)
	}

	return func(c C) error {
		index := -1
		var dispatch func(i int) error
		dispatch = func(i int) error {
			if i <= index {
				return ErrMultipleNext
			}
			index = i
			if i >= len(chain) {
				return nil
			}
			return invoke(chain[i], c, func() error { return dispatch(i + 1) })
		}
		return dispatch(0)
	}
}

func invoke[C any](fn Func[C], c C, next Next) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Wrap(apperrors.KindHandlerFailure, "handler panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	return fn(c, next)
}
