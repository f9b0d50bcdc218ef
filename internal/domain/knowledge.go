package domain

import "time"

// Scratch holds the fields a task handler accumulates while working.
// They are read once, at dissolve, to build a KnowledgeSnapshot.
type Scratch struct {
	Expertise      []string          `json:"expertise" yaml:"expertise"`
	Insights       []string          `json:"insights" yaml:"insights"`
	Patterns       []string          `json:"patterns" yaml:"patterns"`
	BestPractices  []string          `json:"best_practices" yaml:"best_practices"`
	DomainInsights map[string]string `json:"domain_insights" yaml:"domain_insights"`
}

// Clone returns a deep copy with every nil field replaced by an empty value.
func (s Scratch) Clone() Scratch {
	out := Scratch{
		Expertise:      cloneStrings(s.Expertise),
		Insights:       cloneStrings(s.Insights),
		Patterns:       cloneStrings(s.Patterns),
		BestPractices:  cloneStrings(s.BestPractices),
		DomainInsights: make(map[string]string, len(s.DomainInsights)),
	}
	for k, v := range s.DomainInsights {
		out.DomainInsights[k] = v
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// KnowledgeKey identifies a knowledge log.
type KnowledgeKey struct {
	Category string `json:"category"`
	Subtype  string `json:"subtype"`
}

// String returns "category/subtype".
func (k KnowledgeKey) String() string {
	return k.Category + "/" + k.Subtype
}

// KnowledgeSnapshot is the immutable knowledge extracted from a worker at dissolve.
type KnowledgeSnapshot struct {
	Category    string    `json:"category" yaml:"category"`
	Subtype     string    `json:"subtype" yaml:"subtype"`
	WorkerID    string    `json:"worker_id" yaml:"worker_id"`
	Scratch     `yaml:",inline"`
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`
}

// Key returns the log key this snapshot belongs to.
func (s KnowledgeSnapshot) Key() KnowledgeKey {
	return KnowledgeKey{Category: s.Category, Subtype: s.Subtype}
}
