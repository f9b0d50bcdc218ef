// Package ports holds the interfaces the lifecycle manager calls out
// through. internal/app depends only on these; internal/adapters and
// embedders supply the implementations.
//
//   - [HandlerFactory] builds the [TaskHandler] a worker runs on
//   - [IntentValidator] accepts or declines spawn and dissolve intents
//   - [Owner] tracks the workers it asked for and receives their knowledge
//   - [AuditSink] receives lifecycle events in emission order
//   - [KnowledgeRepository] loads and saves knowledge logs
//   - [Clock] drives idle eviction; tests swap in a fake
//   - [HTTPClient] carries webhook deliveries
//   - [Logger] is pkg/log's interface
package ports
