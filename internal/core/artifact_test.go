package core

import "testing"

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tc := range cases {
		if got := ClampConfidence(tc.in); got != tc.want {
			t.Fatalf("ClampConfidence(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSynthesisArtifact_ConsensusConfidence(t *testing.T) {
	empty := &SynthesisArtifact{Round: RoundSynthesis}
	if got := empty.ConsensusConfidence(); got != 0 {
		t.Fatalf("expected 0 for empty synthesis, got %v", got)
	}

	s := &SynthesisArtifact{
		Round: RoundSynthesis,
		ConsensusPoints: []ConsensusPoint{
			{Point: "a", Confidence: 0.6},
			{Point: "b", Confidence: 0.95},
			{Point: "c", Confidence: 0.4},
		},
	}
	if got := s.ConsensusConfidence(); got != 0.95 {
		t.Fatalf("expected max confidence 0.95, got %v", got)
	}
	top, ok := s.TopConsensus()
	if !ok || top.Point != "b" {
		t.Fatalf("expected top consensus b, got %+v ok=%v", top, ok)
	}
}

func TestRoundName(t *testing.T) {
	names := map[int]string{
		RoundIndependent: "independent",
		RoundSynthesis:   "synthesis",
		RoundCrossExam:   "cross_exam",
		RoundVerdict:     "verdict",
		9:                "unknown",
	}
	for round, want := range names {
		if got := RoundName(round); got != want {
			t.Fatalf("RoundName(%d) = %s, want %s", round, got, want)
		}
	}
}
