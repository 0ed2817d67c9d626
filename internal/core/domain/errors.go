package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmbeddingFailure        = errors.New("embedding failure")
	ErrIndexUnavailable        = errors.New("index unavailable")
	ErrGenerationFailure       = errors.New("generation failure")
	ErrMalformedStrategyConfig = errors.New("malformed strategy config")
	ErrTimeout                 = errors.New("timeout")
	ErrStorageUnavailable      = errors.New("storage unavailable")
	ErrQueueUnavailable        = errors.New("queue unavailable")
	ErrMeetingNotFound         = errors.New("meeting not found")
	ErrInvalidInput            = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// WrapExternal wraps a failed call to an external collaborator. Deadline
// expiry is additionally tagged with ErrTimeout so callers can tell a slow
// backend from a broken one while still seeing which stage failed.
func WrapExternal(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	hasKind := IsKind(err, kind)
	tagged := IsKind(err, ErrTimeout)
	expired := errors.Is(err, context.DeadlineExceeded)

	switch {
	case expired && !tagged && hasKind:
		return WrapError(ErrTimeout, operation, err)
	case expired && !tagged:
		return fmt.Errorf("%s: %w: %w: %w", operation, ErrTimeout, kind, err)
	case hasKind:
		return err
	default:
		return WrapError(kind, operation, err)
	}
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
