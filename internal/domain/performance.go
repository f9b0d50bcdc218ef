package domain

import "time"

// PerformanceRecord tracks a worker's task counters and derived score.
// Records outlive their workers.
type PerformanceRecord struct {
	WorkerID       string    `json:"worker_id"`
	Category       string    `json:"category"`
	Subtype        string    `json:"subtype"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time,omitempty"`
	TasksCompleted int       `json:"tasks_completed"`
	Errors         int       `json:"errors"`
	Score          float64   `json:"score"`
	Completed      bool      `json:"completed"`
}

// Duration returns endTime-startTime for completed records,
// and now-startTime while the worker is still tracked.
func (r PerformanceRecord) Duration(now time.Time) time.Duration {
	if r.Completed {
		return r.EndTime.Sub(r.StartTime)
	}
	return now.Sub(r.StartTime)
}

// Score computes max(0, 1 - errors/max(tasks, 1)).
func Score(tasks, errors int) float64 {
	denom := tasks
	if denom < 1 {
		denom = 1
	}
	s := 1 - float64(errors)/float64(denom)
	if s < 0 {
		return 0
	}
	return s
}
