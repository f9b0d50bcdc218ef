package ports

import (
	"context"

	"github.com/bft-labs/specialists/internal/domain"
)

// KnowledgeRepository abstracts persistence of knowledge logs.
type KnowledgeRepository interface {
	// Load retrieves all saved logs. Returns an empty map if nothing was saved.
	Load(ctx context.Context) (map[domain.KnowledgeKey][]domain.KnowledgeSnapshot, error)

	// Save persists all logs, replacing what was saved before.
	Save(ctx context.Context, logs map[domain.KnowledgeKey][]domain.KnowledgeSnapshot) error
}
