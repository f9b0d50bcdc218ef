package spoolwatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/bft-labs/specialists/pkg/specialists"
)

// Request is the content of a spool file.
//
//	{
//	  "category": "technical",
//	  "subtype": "security",
//	  "context": {"repo": "api"},
//	  "tasks": [{"kind": "review", "description": "review auth middleware"}],
//	  "dissolve": true
//	}
type Request struct {
	Category string             `json:"category"`
	Subtype  string             `json:"subtype"`
	Context  map[string]string  `json:"context,omitempty"`
	Tasks    []specialists.Task `json:"tasks"`
	Dissolve bool               `json:"dissolve"`
}

// Response is written next to a processed request as <name>.result.json.
type Response struct {
	WorkerID  string                   `json:"worker_id,omitempty"`
	Fallback  bool                     `json:"fallback,omitempty"`
	Results   []specialists.TaskResult `json:"results,omitempty"`
	Dissolved bool                     `json:"dissolved,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

var errEmptyRequest = errors.New("request names no category or subtype")

// readRequest decodes a spool file. Tasks without an id get one.
func readRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if req.Category == "" || req.Subtype == "" {
		return Request{}, errEmptyRequest
	}
	for i := range req.Tasks {
		if req.Tasks[i].ID == "" {
			req.Tasks[i].ID = uuid.NewString()
		}
	}
	return req, nil
}

func writeResponse(path string, resp Response) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
