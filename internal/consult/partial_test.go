package consult

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

func abortedResult() *core.ConsultationResult {
	return &core.ConsultationResult{
		SchemaVersion:   core.CurrentSchemaVersion,
		ConsultationID:  "c-partial-1",
		Question:        "should we rewrite?",
		Mode:            ModeConverge,
		Agents:          []string{"SecExpert", "Architect", "Pragmatist"},
		RoundsRequested: 4,
		RoundsCompleted: 2,
		Artifacts: core.RoundArtifacts{
			Independent: []core.IndependentArtifact{
				{AgentID: "SecExpert", Round: 1, Position: "no", Confidence: 0.7},
				{AgentID: "Architect", Round: 1, Position: "yes", Confidence: 0.6},
			},
		},
		StartedAt: time.Now(),
	}
}

func readPartialLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open partial file: %v", err)
	}
	defer f.Close()

	var docs []map[string]interface{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var doc map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
			t.Fatalf("parse partial line: %v", err)
		}
		docs = append(docs, doc)
	}
	return docs
}

func TestWireAbortReason(t *testing.T) {
	cases := map[core.AbortCause]string{
		core.AbortUserCancelled:   AbortReasonUserCancel,
		core.AbortCostExceeded:    AbortReasonCostExceeded,
		core.AbortTimeout:         AbortReasonTimeout,
		core.AbortAllAgentsFailed: AbortReasonError,
		core.AbortSynthesisFailed: AbortReasonError,
		core.AbortError:           AbortReasonError,
	}
	for cause, want := range cases {
		if got := WireAbortReason(cause); got != want {
			t.Errorf("WireAbortReason(%s) = %s, want %s", cause, got, want)
		}
	}
}

func TestPartialWriter_WriteAndVerify(t *testing.T) {
	dir := t.TempDir()
	w := NewPartialWriter(dir, logging.NewNop())
	result := abortedResult()

	if err := w.Write(result, core.AbortCostExceeded); err != nil {
		t.Fatalf("Write: %v", err)
	}

	docs := readPartialLines(t, w.Path(result.ConsultationID))
	if len(docs) != 1 {
		t.Fatalf("expected 1 partial line, got %d", len(docs))
	}
	doc := docs[0]

	if doc["status"] != core.StatusPartial {
		t.Errorf("status = %v", doc["status"])
	}
	if doc["abort_reason"] != AbortReasonCostExceeded {
		t.Errorf("abort_reason = %v", doc["abort_reason"])
	}
	if doc["schema_version"] != core.CurrentSchemaVersion {
		t.Errorf("schema_version = %v", doc["schema_version"])
	}

	token, _ := doc["resume_token"].(string)
	if len(token) != 32 { // 128 bits hex
		t.Errorf("resume_token = %q, want 32 hex chars", token)
	}

	completed := doc["completed_round_names"].([]interface{})
	if len(completed) != 2 || completed[0] != "independent" || completed[1] != "synthesis" {
		t.Errorf("completed_round_names = %v", completed)
	}
	incomplete := doc["incomplete_round_names"].([]interface{})
	if len(incomplete) != 2 || incomplete[0] != "cross_exam" || incomplete[1] != "verdict" {
		t.Errorf("incomplete_round_names = %v", incomplete)
	}
	partialAgents := doc["partial_agents"].([]interface{})
	if len(partialAgents) != 2 {
		t.Errorf("partial_agents = %v", partialAgents)
	}

	ok, err := VerifySignature(doc)
	if err != nil || !ok {
		t.Fatalf("signature should verify, ok=%v err=%v", ok, err)
	}

	// Tampering breaks the signature.
	doc["question"] = "tampered"
	if ok, _ := VerifySignature(doc); ok {
		t.Errorf("tampered document must not verify")
	}
}

func TestPartialWriter_SignatureStableAcrossReload(t *testing.T) {
	dir := t.TempDir()
	w := NewPartialWriter(dir, logging.NewNop())
	result := abortedResult()

	if err := w.Write(result, core.AbortError); err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc := readPartialLines(t, w.Path(result.ConsultationID))[0]
	recomputed, err := Sign(doc)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if recomputed != doc["signature"] {
		t.Errorf("signature not stable across reload")
	}
}

func TestPartialWriter_UsesSecretEnv(t *testing.T) {
	dir := t.TempDir()
	w := NewPartialWriter(dir, logging.NewNop())
	result := abortedResult()

	t.Setenv(SecretEnv, "test-secret-one")
	if err := w.Write(result, core.AbortError); err != nil {
		t.Fatalf("Write: %v", err)
	}
	doc := readPartialLines(t, w.Path(result.ConsultationID))[0]

	if ok, _ := VerifySignature(doc); !ok {
		t.Fatalf("signature should verify under the signing secret")
	}
	t.Setenv(SecretEnv, "different-secret")
	if ok, _ := VerifySignature(doc); ok {
		t.Errorf("signature must not verify under a different secret")
	}
}

func TestPartialWriter_AppendsLines(t *testing.T) {
	dir := t.TempDir()
	w := NewPartialWriter(dir, logging.NewNop())
	result := abortedResult()

	if err := w.Write(result, core.AbortError); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write(result, core.AbortError); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if docs := readPartialLines(t, w.Path(result.ConsultationID)); len(docs) != 2 {
		t.Errorf("expected 2 lines, got %d", len(docs))
	}
}

func TestNewResumeToken(t *testing.T) {
	a, err := NewResumeToken()
	if err != nil || len(a) != 32 {
		t.Fatalf("token %q err=%v", a, err)
	}
	b, _ := NewResumeToken()
	if a == b {
		t.Errorf("tokens should be unique")
	}
}

func TestCheckpointWriter_Idempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewCheckpointWriter(dir, logging.NewNop())
	result := abortedResult()
	result.ResumeToken = "feedfacefeedfacefeedfacefeedface"

	if err := w.Save(result, 1, core.StateIndependent); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := os.ReadFile(w.Path(result.ConsultationID, 1))
	if err != nil {
		t.Fatal(err)
	}

	// Second call is a no-op even if the result moved on.
	result.RoundsCompleted = 3
	if err := w.Save(result, 1, core.StateCrossExam); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, err := os.ReadFile(w.Path(result.ConsultationID, 1))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("second save must not rewrite the checkpoint")
	}

	cp, err := w.Load(result.ConsultationID, 1)
	if err != nil || cp == nil {
		t.Fatalf("Load: cp=%v err=%v", cp, err)
	}
	if cp.Round != 1 || cp.ConsultationID != result.ConsultationID || cp.CheckpointID == "" {
		t.Errorf("unexpected checkpoint: %+v", cp)
	}
	if cp.State != core.StateIndependent || cp.ResumeToken != result.ResumeToken {
		t.Errorf("unexpected checkpoint fields: %+v", cp)
	}
}

func TestCheckpointWriter_LoadMissing(t *testing.T) {
	w := NewCheckpointWriter(t.TempDir(), logging.NewNop())
	cp, err := w.Load("nope", 1)
	if err != nil || cp != nil {
		t.Fatalf("missing checkpoint should be (nil, nil), got %v err=%v", cp, err)
	}
}

func TestCheckpointWriter_PathLayout(t *testing.T) {
	w := NewCheckpointWriter("/logs", logging.NewNop())
	want := filepath.Join("/logs", "c-9-round3.checkpoint.json")
	if got := w.Path("c-9", 3); got != want {
		t.Errorf("Path = %s, want %s", got, want)
	}
}
