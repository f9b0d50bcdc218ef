package ports

import (
	"context"

	"github.com/bft-labs/specialists/internal/domain"
)

// Owner is the party that requested a worker. It keeps a tracking set of its
// live workers and receives their knowledge when they dissolve.
type Owner interface {
	Track(w *domain.Worker)
	Untrack(w *domain.Worker)
	ReceiveKnowledge(ctx context.Context, w *domain.Worker, snapshot domain.KnowledgeSnapshot) error
}
