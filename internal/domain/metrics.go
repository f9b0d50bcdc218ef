package domain

import (
	"math"
	"time"
)

// Metrics is an aggregate view over the audit log and active table.
type Metrics struct {
	TotalSpawned           int            `json:"total_spawned" yaml:"total_spawned"`
	TotalDissolved         int            `json:"total_dissolved" yaml:"total_dissolved"`
	CurrentlyActive        int            `json:"currently_active" yaml:"currently_active"`
	CategoryDistribution   map[string]int `json:"category_distribution" yaml:"category_distribution"`
	AverageLifespanMinutes int            `json:"average_lifespan_minutes" yaml:"average_lifespan_minutes"`
}

// AverageLifespanMinutes returns the rounded mean, in minutes, of
// dissolve time minus the matching spawn time over all dissolve events.
// Dissolves without a matching spawn are skipped. Returns 0 when there are none.
func AverageLifespanMinutes(events []LifecycleEvent) int {
	spawned := make(map[string]time.Time)
	for _, e := range events {
		if e.Type == EventSpawn {
			spawned[e.WorkerID] = e.Timestamp
		}
	}

	var total time.Duration
	n := 0
	for _, e := range events {
		if e.Type != EventDissolve {
			continue
		}
		start, ok := spawned[e.WorkerID]
		if !ok {
			continue
		}
		total += e.Timestamp.Sub(start)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(total.Minutes() / float64(n)))
}
