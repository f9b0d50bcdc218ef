package ports

import (
	"context"

	"github.com/bft-labs/specialists/internal/domain"
)

// IntentValidator accepts or declines spawn and dissolve intents.
// A returned error is treated as a rejection.
type IntentValidator interface {
	ValidateIntent(ctx context.Context, intent domain.Intent) (domain.Verdict, error)
}

// IntentValidatorFunc adapts a function to IntentValidator.
type IntentValidatorFunc func(ctx context.Context, intent domain.Intent) (domain.Verdict, error)

// ValidateIntent calls f.
func (f IntentValidatorFunc) ValidateIntent(ctx context.Context, intent domain.Intent) (domain.Verdict, error) {
	return f(ctx, intent)
}
