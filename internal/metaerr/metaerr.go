// Package metaerr attaches structured key/value metadata to errors, so
// context known at the error site can be logged where the error is handled.
package metaerr

import "errors"

type metaError struct {
	err  error
	meta []any
}

func (e *metaError) Error() string { return e.err.Error() }

func (e *metaError) Unwrap() error { return e.err }

// WithMetadata wraps err with alternating key/value pairs.
// It returns nil if err is nil.
func WithMetadata(err error, kvs ...any) error {
	if err == nil {
		return nil
	}
	return &metaError{err: err, meta: kvs}
}

// GetMetadata collects the key/value pairs attached anywhere in err's chain,
// outermost first. The result is suitable for slog.With.
func GetMetadata(err error) []any {
	var meta []any
	for err != nil {
		var merr *metaError
		if !errors.As(err, &merr) {
			break
		}
		meta = append(meta, merr.meta...)
		err = merr.Unwrap()
	}
	return meta
}
