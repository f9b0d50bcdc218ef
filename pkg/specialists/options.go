package specialists

import "net/http"

// Option configures optional behavior of Specialists.
type Option func(*options)

// handlerBinding is a factory waiting to be registered.
type handlerBinding struct {
	category string
	subtype  string
	factory  HandlerFactory
}

// options holds the optional configuration for a Specialists instance.
type options struct {
	httpClient   HTTPClient
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	handlers     []handlerBinding
	fallback     HandlerFactory
	validators   []IntentValidator
	owner        Owner
	auditSinks   []AuditSink
	catalog      Catalog
	clock        Clock
	repo         KnowledgeRepository
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
	}
}

// WithHTTPClient sets the client used by the audit webhook.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for state changes, spawns and dissolves.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Specialists starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithHandler binds a factory to a category/subtype. New fails if the pair is
// not in the catalog or is bound twice.
func WithHandler(category, subtype string, factory HandlerFactory) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, handlerBinding{category, subtype, factory})
	}
}

// WithFallback replaces the placeholder factory used for pairs with no handler.
func WithFallback(factory HandlerFactory) Option {
	return func(o *options) {
		o.fallback = factory
	}
}

// WithValidator adds an intent validator. Validators run in registration
// order after the built-in field checks and deny list.
func WithValidator(v IntentValidator) Option {
	return func(o *options) {
		o.validators = append(o.validators, v)
	}
}

// WithOwner sets the owner used when Spawn is called with a nil owner.
func WithOwner(owner Owner) Option {
	return func(o *options) {
		o.owner = owner
	}
}

// WithAuditSink adds a sink that receives every lifecycle event.
func WithAuditSink(sink AuditSink) Option {
	return func(o *options) {
		o.auditSinks = append(o.auditSinks, sink)
	}
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(c Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithClock replaces the wall clock. Intended for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithKnowledgeRepository sets where knowledge is loaded from and saved to.
// It takes precedence over Config.KnowledgeDir.
func WithKnowledgeRepository(r KnowledgeRepository) Option {
	return func(o *options) {
		o.repo = r
	}
}
