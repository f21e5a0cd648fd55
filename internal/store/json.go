package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// JSONStore implements core.ResultStore as a directory of one JSON file
// per consultation. It trades query speed for a backend with zero
// moving parts.
type JSONStore struct {
	dir string
}

// NewJSONStore creates the backing directory if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the result atomically.
func (s *JSONStore) Save(ctx context.Context, result *core.ConsultationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return core.ErrPersistence("encoding result", err)
	}
	data = append(data, '\n')
	if err := renameio.WriteFile(s.path(result.ConsultationID), data, 0o644); err != nil {
		return core.ErrPersistence("writing result", err)
	}
	return nil
}

// Load retrieves a result by ID; nil when absent.
func (s *JSONStore) Load(ctx context.Context, id string) (*core.ConsultationResult, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	var result core.ConsultationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, core.ErrPersistence("decoding stored result", err)
	}
	return &result, nil
}

// List scans the directory and returns summaries, newest first.
func (s *JSONStore) List(ctx context.Context) ([]core.ResultSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	var summaries []core.ResultSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		result, err := s.Load(ctx, id)
		if err != nil || result == nil {
			// Skip files that are not consultation results.
			continue
		}
		summaries = append(summaries, core.ResultSummary{
			ConsultationID: result.ConsultationID,
			Question:       truncateQuestion(result.Question),
			Mode:           result.Mode,
			Status:         result.Status,
			Confidence:     result.Confidence,
			CostUSD:        result.ActualCostUSD,
			DurationMS:     result.DurationMS,
			CreatedAt:      result.StartedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt > summaries[j].CreatedAt
	})
	return summaries, nil
}

// Close is a no-op for the JSON backend.
func (s *JSONStore) Close() error { return nil }
