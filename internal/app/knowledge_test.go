package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
)

func TestKnowledgeStore_FIFOCap(t *testing.T) {
	s := NewKnowledgeStore(0)

	for i := 0; i < 105; i++ {
		s.Store("technical", "security", domain.KnowledgeSnapshot{
			Category: "technical",
			Subtype:  "security",
			WorkerID: fmt.Sprintf("w%03d", i),
		})
	}

	got := s.Query("technical", "security")
	if len(got) != DefaultKnowledgeCap {
		t.Fatalf("len = %d, want %d", len(got), DefaultKnowledgeCap)
	}
	if got[0].WorkerID != "w005" {
		t.Errorf("oldest = %s, want w005", got[0].WorkerID)
	}
	if got[len(got)-1].WorkerID != "w104" {
		t.Errorf("newest = %s, want w104", got[len(got)-1].WorkerID)
	}
	if s.Len("technical", "performance") != 0 {
		t.Errorf("unrelated key should be empty")
	}
}

func TestKnowledgeStore_QueryReturnsCopy(t *testing.T) {
	s := NewKnowledgeStore(3)
	s.Store("product", "ux", domain.KnowledgeSnapshot{WorkerID: "a"})

	got := s.Query("product", "ux")
	got[0].WorkerID = "mutated"

	if s.Query("product", "ux")[0].WorkerID != "a" {
		t.Errorf("Query() exposed internal state")
	}
}

func TestKnowledgeStore_SnapshotRestore(t *testing.T) {
	s := NewKnowledgeStore(2)
	for _, id := range []string{"a", "b", "c"} {
		s.Store("product", "ux", domain.KnowledgeSnapshot{WorkerID: id})
	}

	restored := NewKnowledgeStore(1)
	restored.Restore(s.Snapshot())

	got := restored.Query("product", "ux")
	if len(got) != 1 || got[0].WorkerID != "c" {
		t.Errorf("Restore() = %+v, want only c", got)
	}
}

func TestExtract_DefaultsToEmpty(t *testing.T) {
	w := domain.NewWorker("w", "technical", "security", testEpoch)
	snap := Extract(w, nil, testEpoch.Add(time.Minute))

	if snap.WorkerID != "w" || snap.Category != "technical" || snap.Subtype != "security" {
		t.Errorf("identity = %+v", snap)
	}
	if snap.Expertise == nil || snap.Insights == nil || snap.DomainInsights == nil {
		t.Errorf("fields should be empty, not nil: %+v", snap.Scratch)
	}
	if !snap.ExtractedAt.Equal(testEpoch.Add(time.Minute)) {
		t.Errorf("extractedAt = %v", snap.ExtractedAt)
	}
}
