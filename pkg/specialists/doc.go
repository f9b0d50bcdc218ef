// Package specialists provides an embeddable coordinator for short-lived,
// single-purpose workers ("specialists").
//
// A worker is spawned for a category and subtype from a catalog (for example
// technical/security), runs tasks through a handler, and is dissolved when
// its owner is done with it or after it sits idle too long. On dissolve the
// worker's accumulated knowledge is handed back to its owner and kept in a
// bounded per-subtype log that later workers can query.
//
// # Basic Usage
//
//	s, err := specialists.New(specialists.DefaultConfig(),
//	    specialists.WithHandler("technical", "security", securityFactory),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
//
//	w, err := s.Spawn(ctx, "technical", "security", nil, nil)
//	res, err := s.Execute(ctx, w, specialists.Task{Kind: specialists.TaskReview})
//	_, err = s.Dissolve(ctx, w, specialists.ReasonCompleted)
//
// Pairs without a handler run on a fallback that returns placeholder
// results; [Specialists.IsFallback] tells them apart.
//
// # Limits
//
// At most Config.MaxConcurrent workers are live at once, and at most
// Config.MaxPerCategory in one category. Spawns past either limit fail with
// an error matching [ErrQuotaExceeded]; use errors.As with
// *[QuotaExceededError] to see which limit was hit.
//
// # Intents
//
// Every spawn and dissolve is described as an [Intent] and checked before it
// happens: field checks first, then the Config.Deny list, then validators
// added with [WithValidator], then plugins that implement [IntentValidator].
// A rejection leaves no trace.
//
// # Lifecycle States
//
// An instance is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Spawn is only accepted while running.
// Stop dissolves every remaining worker with reason "shutdown".
//
// # Plugins
//
//	import "github.com/bft-labs/specialists/plugins/loadgate"
//	import "github.com/bft-labs/specialists/plugins/checkpoint"
//
//	s, err := specialists.New(cfg,
//	    loadgate.WithLoadGate(loadgate.DefaultConfig()),
//	    checkpoint.WithCheckpoint(checkpoint.DefaultConfig()),
//	)
package specialists
