package ports

import (
	"context"
	"net/http"

	"github.com/bft-labs/specialists/internal/domain"
)

// AuditSink receives lifecycle events in emission order.
// Errors are logged by the caller and never abort the lifecycle operation.
type AuditSink interface {
	Record(ctx context.Context, event domain.LifecycleEvent) error
}

// HTTPClient is the part of *http.Client the webhook sink needs, so tests can
// substitute a transport without a server.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
