// Package format renders a sealed consultation result at the output
// boundary: the JSON decision artifact, the human-readable markdown
// report, and the styled console summary.
package format

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/fsutil"
)

// JSONFileName returns the result file name for a consultation.
func JSONFileName(consultationID string) string {
	return fmt.Sprintf("consult-%s.json", consultationID)
}

// MarkdownFileName returns the report file name for a consultation.
func MarkdownFileName(consultationID string) string {
	return fmt.Sprintf("consult-%s.md", consultationID)
}

// WriteJSON persists the result as indented snake_case JSON in dir,
// atomically. It returns the written path.
func WriteJSON(dir string, result *core.ConsultationResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", core.ErrPersistence("encoding result", err)
	}
	data = append(data, '\n')

	if err := fsutil.EnsureDir(dir); err != nil {
		return "", core.ErrPersistence("creating output dir", err)
	}
	path := filepath.Join(dir, JSONFileName(result.ConsultationID))
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", core.ErrPersistence("writing result file", err)
	}
	return path, nil
}

// WriteMarkdown persists the human report in dir, atomically. It
// returns the written path.
func WriteMarkdown(dir string, result *core.ConsultationResult) (string, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", core.ErrPersistence("creating output dir", err)
	}
	path := filepath.Join(dir, MarkdownFileName(result.ConsultationID))
	if err := renameio.WriteFile(path, []byte(Markdown(result)), 0o644); err != nil {
		return "", core.ErrPersistence("writing report file", err)
	}
	return path, nil
}
