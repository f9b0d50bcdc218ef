package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the specialists domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrUnknownCategory is returned when a category is not in the catalog.
	ErrUnknownCategory = errors.New("specialists: unknown category")

	// ErrUnknownSubtype is returned when a subtype is not part of a known category.
	ErrUnknownSubtype = errors.New("specialists: unknown subtype")

	// ErrIntentRejected is returned when the intent validator declines a spawn or dissolve.
	ErrIntentRejected = errors.New("specialists: intent rejected")

	// ErrQuotaExceeded is returned when a spawn would exceed a capacity limit.
	ErrQuotaExceeded = errors.New("specialists: quota exceeded")

	// ErrKnowledgeTransferFailed is logged when the owner rejects a knowledge handoff.
	// It never aborts a dissolve.
	ErrKnowledgeTransferFailed = errors.New("specialists: knowledge transfer failed")

	// ErrFactoryFailed is returned when a handler factory cannot build a worker.
	ErrFactoryFailed = errors.New("specialists: factory failed")

	// ErrWorkerNotActive is returned when an operation targets a worker that is
	// not in the active table.
	ErrWorkerNotActive = errors.New("specialists: worker not active")

	// ErrInvalidTransition is returned when a worker state change is not allowed.
	ErrInvalidTransition = errors.New("specialists: invalid state transition")

	// ErrDuplicateFactory is returned when a factory is registered twice for the same pair.
	ErrDuplicateFactory = errors.New("specialists: factory already registered")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("specialists: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance,
	// or when workers are requested before Start().
	ErrNotRunning = errors.New("specialists: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("specialists: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("specialists: invalid configuration")
)

// QuotaScope identifies which capacity limit a spawn ran into.
type QuotaScope string

const (
	QuotaGlobal   QuotaScope = "global"
	QuotaCategory QuotaScope = "category"
)

// QuotaExceededError carries the scope of a refused spawn.
// It matches ErrQuotaExceeded with errors.Is.
type QuotaExceededError struct {
	Scope    QuotaScope
	Category string
	Limit    int
}

func (e *QuotaExceededError) Error() string {
	if e.Scope == QuotaCategory {
		return fmt.Sprintf("%s: category %q at limit %d", ErrQuotaExceeded, e.Category, e.Limit)
	}
	return fmt.Sprintf("%s: %d workers active", ErrQuotaExceeded, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// IntentRejectedError carries the validator's reason for declining an intent.
// It matches ErrIntentRejected with errors.Is.
type IntentRejectedError struct {
	Action Action
	Reason string
}

func (e *IntentRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrIntentRejected, e.Action)
	}
	return fmt.Sprintf("%s: %s: %s", ErrIntentRejected, e.Action, e.Reason)
}

func (e *IntentRejectedError) Unwrap() error { return ErrIntentRejected }
