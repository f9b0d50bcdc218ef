package specialists

import (
	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
	"github.com/bft-labs/specialists/pkg/log"
)

// Re-export types from internal packages so embedders never import them.
type (
	Worker            = domain.Worker
	WorkerState       = domain.WorkerState
	WorkerInfo        = domain.WorkerInfo
	Task              = domain.Task
	TaskKind          = domain.TaskKind
	TaskResult        = domain.TaskResult
	Scratch           = domain.Scratch
	KnowledgeKey      = domain.KnowledgeKey
	KnowledgeSnapshot = domain.KnowledgeSnapshot
	LifecycleEvent    = domain.LifecycleEvent
	EventType         = domain.EventType
	PerformanceRecord = domain.PerformanceRecord
	Metrics           = domain.Metrics
	Intent            = domain.Intent
	Action            = domain.Action
	Verdict           = domain.Verdict
	Catalog           = domain.Catalog

	QuotaExceededError  = domain.QuotaExceededError
	IntentRejectedError = domain.IntentRejectedError

	TaskHandler         = ports.TaskHandler
	Releaser            = ports.Releaser
	HandlerFactory      = ports.HandlerFactory
	SpawnRequest        = ports.SpawnRequest
	IntentValidator     = ports.IntentValidator
	IntentValidatorFunc = ports.IntentValidatorFunc
	Owner               = ports.Owner
	AuditSink           = ports.AuditSink
	KnowledgeRepository = ports.KnowledgeRepository
	Clock               = ports.Clock
	HTTPClient          = ports.HTTPClient

	// Logger is the interface for structured logging.
	Logger = log.Logger
	// LogField represents a structured log field.
	LogField = log.Field
)

// Intent actions.
const (
	ActionSpawn    = domain.ActionSpawn
	ActionDissolve = domain.ActionDissolve
)

// Task kinds.
const (
	TaskGeneric        = domain.TaskGeneric
	TaskAnalysis       = domain.TaskAnalysis
	TaskReview         = domain.TaskReview
	TaskImplementation = domain.TaskImplementation
	TaskResearch       = domain.TaskResearch
	TaskPlanning       = domain.TaskPlanning
)

// Worker states.
const (
	WorkerSpawned    = domain.WorkerSpawned
	WorkerActive     = domain.WorkerActive
	WorkerDissolving = domain.WorkerDissolving
	WorkerDissolved  = domain.WorkerDissolved
)

// Dissolve reasons used by the coordinator itself.
const (
	ReasonCompleted   = domain.ReasonCompleted
	ReasonIdleTimeout = domain.ReasonIdleTimeout
	ReasonShutdown    = domain.ReasonShutdown
)

// Errors returned by the coordinator. Match with errors.Is.
var (
	ErrUnknownCategory         = domain.ErrUnknownCategory
	ErrUnknownSubtype          = domain.ErrUnknownSubtype
	ErrIntentRejected          = domain.ErrIntentRejected
	ErrQuotaExceeded           = domain.ErrQuotaExceeded
	ErrKnowledgeTransferFailed = domain.ErrKnowledgeTransferFailed
	ErrFactoryFailed           = domain.ErrFactoryFailed
	ErrWorkerNotActive         = domain.ErrWorkerNotActive
	ErrDuplicateFactory        = domain.ErrDuplicateFactory
	ErrAlreadyRunning          = domain.ErrAlreadyRunning
	ErrNotRunning              = domain.ErrNotRunning
	ErrShutdownTimeout         = domain.ErrShutdownTimeout
	ErrInvalidConfig           = domain.ErrInvalidConfig
)

// Accept returns an accepting verdict.
func Accept() Verdict { return domain.Accept() }

// Reject returns a declining verdict with a reason.
func Reject(reason string) Verdict { return domain.Reject(reason) }

// ParseTaskKind maps a wire name such as "review" to a TaskKind.
func ParseTaskKind(s string) (TaskKind, error) { return domain.ParseTaskKind(s) }

// DefaultCatalog returns the built-in categories and subtypes.
func DefaultCatalog() Catalog { return domain.DefaultCatalog() }
