package consult

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/fsutil"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

// SecretEnv names the environment variable holding the HMAC key for
// partial-result signatures.
const SecretEnv = "CONCLAVE_SECRET"

// defaultSecret signs partial records when CONCLAVE_SECRET is unset. It
// only protects against accidental tampering, not a motivated attacker;
// set the env var for real deployments.
const defaultSecret = "conclave-default-signing-key"

// Wire abort reasons carried in partial records.
const (
	AbortReasonUserCancel   = "user_pulse_cancel"
	AbortReasonTimeout      = "timeout"
	AbortReasonError        = "error"
	AbortReasonCostExceeded = "cost_exceeded_estimate"
)

// WireAbortReason maps an internal abort cause to its wire name.
func WireAbortReason(cause core.AbortCause) string {
	switch cause {
	case core.AbortUserCancelled:
		return AbortReasonUserCancel
	case core.AbortCostExceeded:
		return AbortReasonCostExceeded
	case core.AbortTimeout:
		return AbortReasonTimeout
	default:
		return AbortReasonError
	}
}

// NewResumeToken generates a 128-bit hex token.
func NewResumeToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func signingKey() []byte {
	if s := os.Getenv(SecretEnv); s != "" {
		return []byte(s)
	}
	return []byte(defaultSecret)
}

// Sign computes the HMAC-SHA256 signature of a partial document over
// everything except its signature field. json.Marshal sorts map keys, so
// the byte stream is canonical.
func Sign(doc map[string]interface{}) (string, error) {
	unsigned := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k == "signature" {
			continue
		}
		unsigned[k] = v
	}
	data, err := json.Marshal(unsigned)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, signingKey())
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature checks a partial document's signature.
func VerifySignature(doc map[string]interface{}) (bool, error) {
	claimed, _ := doc["signature"].(string)
	if claimed == "" {
		return false, nil
	}
	want, err := Sign(doc)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(claimed), []byte(want)), nil
}

// PartialWriter persists signed partial records when a consultation
// aborts before Complete.
type PartialWriter struct {
	logDir string
	logger *logging.Logger
}

// NewPartialWriter creates a writer rooted at logDir.
func NewPartialWriter(logDir string, logger *logging.Logger) *PartialWriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PartialWriter{logDir: logDir, logger: logger}
}

// Path returns the partial JSONL path for a consultation.
func (w *PartialWriter) Path(consultationID string) string {
	return filepath.Join(w.logDir, fmt.Sprintf("consult-%s-partial.jsonl", consultationID))
}

// Write appends one signed partial record for the aborted result. The
// record is a self-contained snake_case object; the write is a single
// append so concurrent writers do not interleave within a line.
func (w *PartialWriter) Write(result *core.ConsultationResult, cause core.AbortCause) error {
	data, err := json.Marshal(result)
	if err != nil {
		return core.ErrPersistence("marshal partial result", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.ErrPersistence("reshape partial result", err)
	}

	token := result.ResumeToken
	if token == "" {
		token, err = NewResumeToken()
		if err != nil {
			return core.ErrPersistence("generate resume token", err)
		}
	}

	doc["schema_version"] = core.CurrentSchemaVersion
	doc["status"] = core.StatusPartial
	doc["abort_reason"] = WireAbortReason(cause)
	doc["resume_token"] = token
	doc["completed_round_names"] = result.CompletedRoundNames()
	doc["incomplete_round_names"] = result.IncompleteRoundNames()
	doc["partial_agents"] = result.SuccessfulRound1Agents()

	signature, err := Sign(doc)
	if err != nil {
		return core.ErrPersistence("sign partial result", err)
	}
	doc["signature"] = signature

	line, err := json.Marshal(doc)
	if err != nil {
		return core.ErrPersistence("marshal partial record", err)
	}
	if err := fsutil.AppendLine(w.Path(result.ConsultationID), line); err != nil {
		return core.ErrPersistence("append partial record", err)
	}

	result.Status = core.StatusPartial
	result.AbortReason = WireAbortReason(cause)
	result.ResumeToken = token
	result.Signature = signature

	w.logger.WithConsultation(result.ConsultationID).
		Info("partial result persisted", "abort_reason", doc["abort_reason"])
	return nil
}
