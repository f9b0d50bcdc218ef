package specialists_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/specialists/pkg/specialists"
)

// ExampleNew demonstrates how to embed the coordinator in your application.
func ExampleNew() {
	s, err := specialists.New(specialists.DefaultConfig())
	if err != nil {
		fmt.Printf("failed to create coordinator: %v\n", err)
		return
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	defer s.Stop()

	w, err := s.Spawn(ctx, "technical", "security", nil, nil)
	if err != nil {
		fmt.Printf("spawn failed: %v\n", err)
		return
	}

	res, _ := s.Execute(ctx, w, specialists.Task{ID: "t1", Kind: specialists.TaskReview})
	fmt.Println(res.Summary)
	fmt.Println("placeholder:", s.IsFallback(w.ID()))

	dissolved, _ := s.Dissolve(ctx, w, specialists.ReasonCompleted)
	fmt.Println("dissolved:", dissolved)

	// Output:
	// technical/security placeholder result for review task
	// placeholder: true
	// dissolved: true
}

// Example_quota shows how to tell which limit refused a spawn.
func Example_quota() {
	cfg := specialists.DefaultConfig()
	cfg.MaxConcurrent = 2
	cfg.MaxPerCategory = 2

	s, _ := specialists.New(cfg)
	ctx := context.Background()
	_ = s.Start(ctx)
	defer s.Stop()

	_, _ = s.Spawn(ctx, "creative", "writing", nil, nil)
	_, _ = s.Spawn(ctx, "product", "ux", nil, nil)
	_, err := s.Spawn(ctx, "business", "legal", nil, nil)

	var quota *specialists.QuotaExceededError
	if errors.As(err, &quota) {
		fmt.Printf("%s limit %d reached\n", quota.Scope, quota.Limit)
	}

	// Output: global limit 2 reached
}

// Example_withEventHandler demonstrates how to receive lifecycle events.
func Example_withEventHandler() {
	handler := &spawnPrinter{}

	s, err := specialists.New(specialists.DefaultConfig(), specialists.WithEventHandler(handler))
	if err != nil {
		fmt.Printf("failed to create coordinator: %v\n", err)
		return
	}

	_ = s // Use the coordinator...
}

// spawnPrinter prints spawns and ignores everything else.
type spawnPrinter struct {
	specialists.NoopEventHandler // Embed for no-op defaults
}

func (h *spawnPrinter) OnSpawn(event specialists.LifecycleEvent) {
	fmt.Printf("spawned %s (%s/%s)\n", event.WorkerID, event.Category, event.Subtype)
}
