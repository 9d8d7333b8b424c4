package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers (HTTP layer, queue consumer) can decide
// between retrying, acking, or surfacing the error.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindProviderFailure
	KindStoreFailure
	KindNotFound
	KindConfigError
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "EMPTY_INPUT"
	case KindProviderFailure:
		return "PROVIDER_FAILURE"
	case KindStoreFailure:
		return "STORE_FAILURE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConfigError:
		return "CONFIG_ERROR"
	default:
		return "UNKNOWN"
	}
}

// AppError carries the failure kind plus the operation and key that produced it,
// so retry classification never has to parse error strings.
type AppError struct {
	Kind Kind
	Op   string // e.g. "index.chunk", "search.query"
	Key  string // e.g. "note=<uuid> recording=<uuid>"
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s [%s]: %v", e.Op, e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s [%s]", e.Op, e.Kind, e.Key)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, key string, err error) *AppError {
	return &AppError{Kind: kind, Op: op, Key: key, Err: err}
}

func Newf(kind Kind, op, key, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Op: op, Key: key, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from any error in the chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsRetriable reports whether a queue task failing with err should re-enter backoff.
// Missing or blank input will not heal on retry; provider and store outages can.
func IsRetriable(err error) bool {
	switch KindOf(err) {
	case KindEmptyInput, KindNotFound, KindConfigError:
		return false
	default:
		return true
	}
}
