package format

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

func sampleResult() *core.ConsultationResult {
	now := time.Now().UTC()
	return &core.ConsultationResult{
		SchemaVersion:   core.CurrentSchemaVersion,
		ConsultationID:  "11111111-2222-3333-4444-555555555555",
		Question:        "Should we adopt event sourcing?",
		Mode:            "converge",
		Agents:          []string{"SecExpert", "Architect", "Pragmatist"},
		State:           core.StateComplete,
		RoundsRequested: 4,
		RoundsCompleted: 4,
		Consensus:       "Adopt it for the audit domain only",
		Confidence:      0.88,
		Recommendation:  "Adopt event sourcing for the audit domain; keep CRUD elsewhere.",
		Concerns:        []string{"operational complexity"},
		Dissent: []core.Dissent{
			{Agent: "Pragmatist", Concern: "team has no prior experience", Severity: "medium"},
		},
		Perspectives: []core.Perspective{
			{Agent: "SecExpert", Position: "Immutable log helps forensics", Confidence: 0.9},
		},
		Artifacts: core.RoundArtifacts{
			Synthesis: &core.SynthesisArtifact{
				Round: 2,
				ConsensusPoints: []core.ConsensusPoint{
					{Point: "Audit trail is the main win", SupportingAgents: []string{"SecExpert", "Architect"}, Confidence: 0.85},
				},
				Tensions: []core.Tension{
					{Topic: "Complexity", Viewpoints: []core.Viewpoint{
						{AgentID: "Architect", Viewpoint: "Manageable with tooling"},
						{AgentID: "Pragmatist", Viewpoint: "Too much for this team"},
					}},
				},
			},
			CrossExam: &core.CrossExamArtifact{
				Round: 3,
				Challenges: []core.Challenge{
					{Challenger: "Pragmatist", Target: "Consensus", Challenge: "Projections add latency"},
				},
				Unresolved: []string{"replay cost at scale"},
			},
		},
		EstimatedCostUSD: 0.1234,
		ActualCostUSD:    0.0987,
		DurationMS:       4200,
		Status:           core.StatusComplete,
		StartedAt:        now,
		CompletedAt:      &now,
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	path, err := WriteJSON(dir, result)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if filepath.Base(path) != "consult-"+result.ConsultationID+".json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("result file not valid JSON: %v", err)
	}
	if doc["schema_version"] != "1.0" {
		t.Errorf("schema_version = %v", doc["schema_version"])
	}
	for _, key := range []string{"consultation_id", "rounds_completed", "actual_cost_usd", "estimated_cost_usd"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	path, err := WriteMarkdown(dir, result)
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	report := string(data)
	for _, want := range []string{
		"# Consultation " + result.ConsultationID,
		"## Recommendation",
		"## Panel Perspectives",
		"## Points of Agreement",
		"## Tensions",
		"## Cross-Examination",
		"## Dissent",
		"Pragmatist",
		"replay cost at scale",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestMarkdown_AbortedShowsReasonAndRounds(t *testing.T) {
	result := sampleResult()
	result.Status = core.StatusPartial
	result.AbortReason = "cost_exceeded_estimate"
	result.RoundsCompleted = 2

	report := Markdown(result)
	if !strings.Contains(report, "Aborted: cost_exceeded_estimate") {
		t.Errorf("report missing abort banner:\n%s", report)
	}
	if !strings.Contains(report, "independent, synthesis") {
		t.Errorf("report missing completed round names:\n%s", report)
	}
}

func TestSummary(t *testing.T) {
	result := sampleResult()
	out := Summary(result)
	for _, want := range []string{"consultation complete", "Recommendation", "88%", "4/4"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	result.Status = core.StatusAborted
	result.AbortReason = "user_pulse_cancel"
	out = Summary(result)
	if !strings.Contains(out, "user_pulse_cancel") {
		t.Errorf("aborted summary missing reason:\n%s", out)
	}
}

func TestRenderTerminal_FallsBackToRaw(t *testing.T) {
	md := "# Title\n\nbody\n"
	out := RenderTerminal(md)
	if out == "" {
		t.Fatal("empty render")
	}
	if !strings.Contains(out, "Title") {
		t.Errorf("render lost content: %q", out)
	}
}
