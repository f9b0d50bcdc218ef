package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bft-labs/specialists/internal/domain"
)

const knowledgeFileName = "knowledge.json"

// knowledgeLog is the on-disk form of one log. JSON objects cannot be keyed
// by a struct, so logs are stored as a list.
type knowledgeLog struct {
	Category  string                     `json:"category"`
	Subtype   string                     `json:"subtype"`
	Snapshots []domain.KnowledgeSnapshot `json:"snapshots"`
}

// KnowledgeFileRepository implements ports.KnowledgeRepository using a JSON file.
// Saves are serialized so concurrent checkpoints never share the temp file.
type KnowledgeFileRepository struct {
	mu  sync.Mutex
	dir string
}

// NewKnowledgeFileRepository creates a repository storing knowledge.json in dir.
func NewKnowledgeFileRepository(dir string) *KnowledgeFileRepository {
	return &KnowledgeFileRepository{dir: dir}
}

// Load reads every saved log.
// Returns an empty map and nil error if no file exists.
func (r *KnowledgeFileRepository) Load(ctx context.Context) (map[domain.KnowledgeKey][]domain.KnowledgeSnapshot, error) {
	out := make(map[domain.KnowledgeKey][]domain.KnowledgeSnapshot)

	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}

	var logs []knowledgeLog
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", knowledgeFileName, err)
	}
	for _, l := range logs {
		key := domain.KnowledgeKey{Category: l.Category, Subtype: l.Subtype}
		out[key] = append(out[key], l.Snapshots...)
	}
	return out, nil
}

// Save replaces the file with logs.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *KnowledgeFileRepository) Save(ctx context.Context, logs map[domain.KnowledgeKey][]domain.KnowledgeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	keys := make([]domain.KnowledgeKey, 0, len(logs))
	for k := range logs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make([]knowledgeLog, 0, len(keys))
	for _, k := range keys {
		out = append(out, knowledgeLog{Category: k.Category, Subtype: k.Subtype, Snapshots: logs[k]})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Path returns the full path to the knowledge file.
func (r *KnowledgeFileRepository) Path() string {
	return filepath.Join(r.dir, knowledgeFileName)
}
