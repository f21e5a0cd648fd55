package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// defaultAlwaysAllowUnder is the USD threshold under which a
// consultation is admitted without a prompt when the config file does
// not override it.
const defaultAlwaysAllowUnder = 0.50

// GlobalStore reads and persists the auto-approve threshold in the
// global JSON config file. Writes merge into the existing document so
// unrelated keys survive; a corrupted file is treated as empty.
type GlobalStore struct {
	path string
}

// NewGlobalStore creates a store over an explicit config path. An empty
// path resolves to the OS-standard location.
func NewGlobalStore(path string) (*GlobalStore, error) {
	if path == "" {
		resolved, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		path = resolved
	}
	return &GlobalStore{path: path}, nil
}

// Path returns the config file location backing this store.
func (s *GlobalStore) Path() string { return s.path }

// read loads the config document. Missing or corrupted files yield an
// empty document rather than an error.
func (s *GlobalStore) read() map[string]interface{} {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]interface{}{}
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return map[string]interface{}{}
	}
	return doc
}

// AlwaysAllowUnder returns the persisted threshold, or the default when
// the file is absent, corrupted, or does not set the key.
func (s *GlobalStore) AlwaysAllowUnder() float64 {
	doc := s.read()
	consult, ok := doc["consult"].(map[string]interface{})
	if !ok {
		return defaultAlwaysAllowUnder
	}
	v, ok := consult["alwaysAllowUnder"].(float64)
	if !ok || v <= 0 {
		return defaultAlwaysAllowUnder
	}
	return v
}

// SaveAlwaysAllowUnder merges the new threshold into the config file
// atomically, preserving every other key in the document.
func (s *GlobalStore) SaveAlwaysAllowUnder(threshold float64) error {
	if threshold <= 0 {
		return core.ErrValidation(core.CodeInvalidThreshold,
			fmt.Sprintf("threshold must be a positive dollar amount, got %v", threshold))
	}

	doc := s.read()
	consult, ok := doc["consult"].(map[string]interface{})
	if !ok {
		consult = map[string]interface{}{}
		doc["consult"] = consult
	}
	consult["alwaysAllowUnder"] = threshold

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return core.ErrPersistence("encoding config", err)
	}
	data = append(data, '\n')

	if err := AtomicWrite(s.path, data); err != nil {
		return core.ErrPersistence("writing config", err)
	}
	return nil
}
