package consult

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/fsutil"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

// Checkpoint is a per-round snapshot of the in-progress result.
type Checkpoint struct {
	CheckpointID   string                   `json:"checkpoint_id"`
	ConsultationID string                   `json:"consultation_id"`
	Round          int                      `json:"round"`
	State          core.State               `json:"state"`
	Result         *core.ConsultationResult `json:"result"`
	Timestamp      time.Time                `json:"timestamp"`
	ResumeToken    string                   `json:"resume_token,omitempty"`
}

// CheckpointWriter persists round checkpoints for recovery.
type CheckpointWriter struct {
	logDir string
	logger *logging.Logger
}

// NewCheckpointWriter creates a writer rooted at logDir.
func NewCheckpointWriter(logDir string, logger *logging.Logger) *CheckpointWriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CheckpointWriter{logDir: logDir, logger: logger}
}

// Path returns the checkpoint path for a consultation round.
func (w *CheckpointWriter) Path(consultationID string, round int) string {
	return filepath.Join(w.logDir, fmt.Sprintf("%s-round%d.checkpoint.json", consultationID, round))
}

// Save writes the checkpoint for a round. Idempotent: a second call for
// the same (consultation, round) is a no-op. The write goes through a
// temp file and rename so a crash never leaves a torn checkpoint.
func (w *CheckpointWriter) Save(result *core.ConsultationResult, round int, state core.State) error {
	path := w.Path(result.ConsultationID, round)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cp := Checkpoint{
		CheckpointID:   uuid.NewString(),
		ConsultationID: result.ConsultationID,
		Round:          round,
		State:          state,
		Result:         result,
		Timestamp:      time.Now(),
		ResumeToken:    result.ResumeToken,
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return core.ErrPersistence("marshal checkpoint", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return core.ErrPersistence("write checkpoint", err)
	}

	w.logger.WithConsultation(result.ConsultationID).WithRound(round).
		Debug("checkpoint written", "path", path)
	return nil
}

// Load reads a round checkpoint if it exists.
func (w *CheckpointWriter) Load(consultationID string, round int) (*Checkpoint, error) {
	data, err := fsutil.ReadFileScoped(w.Path(consultationID, round))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, core.ErrPersistence("read checkpoint", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, core.ErrPersistence("parse checkpoint", err)
	}
	return &cp, nil
}
