package app

import (
	"context"
	"testing"

	"github.com/bft-labs/specialists/internal/domain"
)

func TestDispatchHandler_RoutesByKind(t *testing.T) {
	review := func(_ context.Context, task domain.Task, s *domain.Scratch) (domain.TaskResult, error) {
		s.Patterns = append(s.Patterns, "checked "+task.ID)
		return domain.TaskResult{Summary: "reviewed"}, nil
	}
	research := func(_ context.Context, task domain.Task, s *domain.Scratch) (domain.TaskResult, error) {
		s.DomainInsights = map[string]string{"source": task.Payload["source"]}
		return domain.TaskResult{Summary: "researched"}, nil
	}

	h := NewDispatchHandler(map[domain.TaskKind]TaskFunc{
		domain.TaskReview:   review,
		domain.TaskResearch: research,
	}, nil)

	tests := []struct {
		task    domain.Task
		want    string
		wantErr bool
	}{
		{domain.Task{ID: "a", Kind: domain.TaskReview}, "reviewed", false},
		{domain.Task{ID: "b", Kind: domain.TaskResearch, Payload: map[string]string{"source": "rfc"}}, "researched", false},
		{domain.Task{ID: "c", Kind: domain.TaskPlanning}, "", true},
	}
	for _, tt := range tests {
		res, err := h.ProcessTask(context.Background(), tt.task)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ProcessTask(%s) error = %v, wantErr %v", tt.task.Kind, err, tt.wantErr)
		}
		if res.Summary != tt.want {
			t.Errorf("ProcessTask(%s) = %q, want %q", tt.task.Kind, res.Summary, tt.want)
		}
	}

	k := h.Knowledge()
	if len(k.Patterns) != 1 || k.Patterns[0] != "checked a" {
		t.Errorf("patterns = %v", k.Patterns)
	}
	if k.DomainInsights["source"] != "rfc" {
		t.Errorf("domain insights = %v", k.DomainInsights)
	}
}

func TestDispatchHandler_Fallback(t *testing.T) {
	fallback := func(_ context.Context, task domain.Task, _ *domain.Scratch) (domain.TaskResult, error) {
		return domain.TaskResult{Summary: "generic " + task.Kind.String()}, nil
	}
	h, _ := DispatchFactory(nil, fallback)(context.Background(), portsSpawn("product", "ux"))

	res, err := h.ProcessTask(context.Background(), domain.Task{Kind: domain.TaskPlanning})
	if err != nil || res.Summary != "generic planning" {
		t.Errorf("ProcessTask() = %q, %v", res.Summary, err)
	}
}

func TestRoster(t *testing.T) {
	r := NewRoster("lead")
	a := domain.NewWorker("a", "technical", "security", testEpoch)
	b := domain.NewWorker("b", "technical", "devops", testEpoch)

	r.Track(b)
	r.Track(a)
	if got := r.Members(); len(got) != 2 || got[0] != "a" {
		t.Errorf("Members() = %v", got)
	}
	r.Untrack(a)
	if got := r.Members(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Members() after untrack = %v", got)
	}

	_ = r.ReceiveKnowledge(context.Background(), b, domain.KnowledgeSnapshot{WorkerID: "b"})
	if len(r.Received()) != 1 {
		t.Errorf("Received() = %v", r.Received())
	}
}
