// Package domain holds the coordinator's entities and the rules that do not
// need a collaborator: worker state transitions, audit events, knowledge
// snapshots, performance scores, intents and the error taxonomy.
//
//   - [Worker]: an ephemeral specialist bound to a category and subtype
//   - [LifecycleEvent]: immutable audit record of a spawn or dissolve
//   - [PerformanceRecord]: per-worker counters and derived score
//   - [KnowledgeSnapshot]: end-of-life knowledge extracted from a worker
//   - [Intent]: a spawn or dissolve request submitted for validation
//   - [Catalog]: the categories and subtypes a deployment knows about
//
// Nothing here does I/O or logs.
package domain
