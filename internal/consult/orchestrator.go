package consult

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/events"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

// Defaults for orchestrator options.
const (
	DefaultMaxRounds           = 4
	DefaultConfidenceThreshold = 0.90
	costOverrunFactor          = 1.5
)

// Options tune a single consultation.
type Options struct {
	MaxRounds           int
	Verbose             bool
	Mode                string
	ConfidenceThreshold float64
	ProjectPath         string
	Greenfield          bool
	LoadedContext       string
	ScrubbingFindings   int
	AllowCostOverruns   bool
}

func (o *Options) applyDefaults() {
	if o.MaxRounds <= 0 || o.MaxRounds > DefaultMaxRounds {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.Mode == "" {
		o.Mode = ModeConverge
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = DefaultConfidenceThreshold
	}
}

// Orchestrator drives one consultation through the four debate rounds.
// It exclusively owns the result, the state machine, and the cost tally;
// the panel and provider handles are borrowed.
type Orchestrator struct {
	panel       core.Panel
	judge       core.ProviderChat
	hedger      *Hedger
	gate        *CostGate
	strategy    Strategy
	partials    *PartialWriter
	checkpoints *CheckpointWriter
	bus         *events.Bus
	logger      *logging.Logger
	opts        Options

	cancelled atomic.Bool

	machine *core.StateMachine
	result  *core.ConsultationResult
}

// NewOrchestrator wires an orchestrator for one consultation. The judge
// is the arbiter model serving Rounds 2-4; it is called single-flight,
// without hedging.
func NewOrchestrator(panel core.Panel, judge core.ProviderChat, hedger *Hedger, gate *CostGate, partials *PartialWriter, checkpoints *CheckpointWriter, bus *events.Bus, logger *logging.Logger, opts Options) (*Orchestrator, error) {
	if err := panel.Validate(); err != nil {
		return nil, err
	}
	if judge == nil {
		return nil, core.ErrValidation(core.CodeInvalidAgent, "judge provider is required")
	}
	opts.applyDefaults()

	strategy, err := NewStrategy(opts.Mode, 0)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		bus = events.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Orchestrator{
		panel:       panel,
		judge:       judge,
		hedger:      hedger,
		gate:        gate,
		strategy:    strategy,
		partials:    partials,
		checkpoints: checkpoints,
		bus:         bus,
		logger:      logger,
		opts:        opts,
	}, nil
}

// Cancel requests cooperative cancellation. The flag is checked at round
// boundaries; the in-flight round is allowed to resolve.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

// Result returns the in-progress or sealed result. Nil before Consult.
func (o *Orchestrator) Result() *core.ConsultationResult {
	return o.result
}

// State returns the current consultation state.
func (o *Orchestrator) State() core.State {
	if o.machine == nil {
		return core.StateEstimating
	}
	return o.machine.Current()
}

// Consult runs the full debate and returns the sealed result. On abort
// the returned result is still populated up to the abort point; the error
// carries the cause.
func (o *Orchestrator) Consult(ctx context.Context, question, contextText string) (*core.ConsultationResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, core.ErrValidation(core.CodeEmptyQuestion, "question must not be empty")
	}
	if len(question) > core.MaxQuestionLength {
		return nil, core.ErrValidation(core.CodeQuestionTooLong,
			fmt.Sprintf("question length %d exceeds maximum %d", len(question), core.MaxQuestionLength))
	}

	id := uuid.NewString()
	started := time.Now()
	log := o.logger.WithConsultation(id)

	if contextText == "" {
		contextText = o.opts.LoadedContext
	}
	if o.opts.Greenfield {
		contextText = "This is a greenfield design question: assume no existing codebase constraints.\n\n" + contextText
	}

	o.machine = core.NewStateMachine()
	o.result = &core.ConsultationResult{
		SchemaVersion:    core.CurrentSchemaVersion,
		ConsultationID:   id,
		Question:         question,
		Context:          contextText,
		Mode:             o.strategy.Name(),
		Agents:           o.panel.Names(),
		ProjectPath:      o.opts.ProjectPath,
		Greenfield:       o.opts.Greenfield,
		ScrubbedFindings: o.opts.ScrubbingFindings,
		RoundsRequested:  o.opts.MaxRounds,
		PromptVersions:   o.strategy.PromptVersions(),
		StartedAt:        started,
	}

	// User-initiated cancellation arrives over the bus from the pulse UI.
	sub := o.bus.Subscribe(func(e events.Event) {
		if e.ConsultationID() == id {
			o.Cancel()
		}
	}, events.TopicCancelRequested)
	defer o.bus.Unsubscribe(sub)

	o.bus.Emit(events.NewConsultationStartedEvent(id, question, o.strategy.Name(), o.panel.Names(), o.opts.MaxRounds))
	log.Info("consultation started", "mode", o.strategy.Name(), "agents", len(o.panel), "max_rounds", o.opts.MaxRounds)

	// Estimate and admission.
	estimate := EstimateCost(question, o.panel, o.opts.MaxRounds)
	o.result.EstimatedCostUSD = estimate.USD
	o.bus.Emit(events.NewCostEstimatedEvent(id, estimate.USD, estimate.QuestionTokens, estimate.AgentCount, estimate.Rounds))

	if err := o.machine.Transition(core.StateAwaitingConsent); err != nil {
		return o.result, err
	}

	decision, err := o.gate.GetUserConsent(estimate, len(o.panel), o.opts.MaxRounds)
	o.bus.Emit(events.NewUserConsentEvent(id, string(decision), estimate.USD, false))
	if err != nil || decision == ConsentDenied {
		// Denial has no side effects: no partial file is written.
		_ = o.machine.Abort(core.AbortUserCancelled)
		o.sealAborted(core.AbortUserCancelled, started)
		o.bus.Emit(events.NewConsultationAbortedEvent(id, string(core.AbortUserCancelled), 0))
		if err == nil {
			err = core.ErrAdmissionDenied(estimate.USD)
		}
		return o.result, err
	}

	// Round 1: independent positions.
	if err := o.machine.Transition(core.StateIndependent); err != nil {
		return o.result, err
	}
	if err := o.runIndependent(ctx, question, contextText); err != nil {
		return o.result, o.abort(core.AbortAllAgentsFailed, started, err)
	}
	o.checkpoint(core.RoundIndependent)
	if err := o.guards(estimate, started, core.RoundIndependent); err != nil {
		return o.result, err
	}

	if o.opts.MaxRounds == 1 {
		o.sealQuickResult()
		return o.complete(started)
	}

	// Round 2: synthesis.
	if err := o.machine.Transition(core.StateSynthesis); err != nil {
		return o.result, err
	}
	if err := o.runSynthesis(ctx, question); err != nil {
		return o.result, o.abort(core.AbortSynthesisFailed, started, err)
	}
	o.checkpoint(core.RoundSynthesis)
	if err := o.guards(estimate, started, core.RoundSynthesis); err != nil {
		return o.result, err
	}

	consensusConfidence := o.result.Artifacts.Synthesis.ConsensusConfidence()
	if o.strategy.ShouldTerminateEarly(consensusConfidence, core.RoundSynthesis) &&
		consensusConfidence >= o.opts.ConfidenceThreshold {
		o.sealEarlyTermination()
		return o.complete(started)
	}
	if o.opts.MaxRounds == 2 {
		o.sealFromSynthesis()
		return o.complete(started)
	}

	// Round 3: cross-examination. Judge failure here is tolerated.
	if err := o.machine.Transition(core.StateCrossExam); err != nil {
		return o.result, err
	}
	o.runCrossExam(ctx, question)
	o.checkpoint(core.RoundCrossExam)
	if err := o.guards(estimate, started, core.RoundCrossExam); err != nil {
		return o.result, err
	}

	if o.opts.MaxRounds == 3 {
		o.sealFromSynthesis()
		return o.complete(started)
	}

	// Round 4: verdict. A consultation without a verdict is not complete.
	if err := o.machine.Transition(core.StateVerdict); err != nil {
		return o.result, err
	}
	if err := o.runVerdict(ctx, question); err != nil {
		return o.result, o.abort(core.AbortError, started, err)
	}
	o.checkpoint(core.RoundVerdict)
	if err := o.guards(estimate, started, core.RoundVerdict); err != nil {
		return o.result, err
	}

	o.sealFromVerdict()
	return o.complete(started)
}

// runIndependent fans Round 1 out across the panel. Output ordering is
// stable by panel position regardless of resolution order.
func (o *Orchestrator) runIndependent(ctx context.Context, question, contextText string) error {
	id := o.result.ConsultationID
	responses := make([]core.AgentResponse, len(o.panel))

	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range o.panel {
		g.Go(func() error {
			prompt := o.strategy.IndependentPrompt(question, contextText, agent)
			messages := []core.Message{{Role: core.RoleUser, Content: prompt}}

			o.bus.Emit(events.NewAgentThinkingEvent(id, agent.Name, core.RoundIndependent, agent.Model))
			resp := o.hedger.Execute(gctx, id, agent, core.RoundIndependent, messages, agent.SystemPrompt)
			o.bus.Emit(events.NewAgentCompletedEvent(id, agent.Name, core.RoundIndependent, resp.Model,
				resp.Tokens.Input, resp.Tokens.Output, resp.DurationMS, resp.Error))
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	var artifacts []core.IndependentArtifact
	succeeded, failed := 0, 0
	for i := range responses {
		o.trackCost(responses[i])
		if responses[i].Failed() {
			failed++
			continue
		}
		artifact, err := ExtractIndependent(responses[i].AgentID, responses[i].Content)
		if err != nil {
			failed++
			responses[i].Error = err.Error()
			o.logger.WithConsultation(id).WithAgent(responses[i].AgentID).
				Warn("round 1 extraction failed", "error", err)
		} else {
			succeeded++
			artifacts = append(artifacts, *artifact)
			o.bus.Emit(events.NewRoundArtifactEvent(id, core.RoundIndependent, responses[i].AgentID))
		}
	}
	o.result.Responses.Round1 = responses
	o.result.Artifacts.Independent = artifacts
	o.result.RoundsCompleted = core.RoundIndependent
	o.bus.Emit(events.NewRoundCompletedEvent(id, core.RoundIndependent, succeeded, failed, o.result.ActualCostUSD))

	if succeeded == 0 {
		return &core.DomainError{
			Category: core.ErrCatTransport,
			Code:     core.CodeAllAgentsFailed,
			Message:  "every agent failed in round 1",
		}
	}
	return nil
}

func (o *Orchestrator) runSynthesis(ctx context.Context, question string) error {
	id := o.result.ConsultationID
	prompt := o.strategy.SynthesisPrompt(question, o.result.Artifacts.Independent)

	resp := o.judgeCall(ctx, prompt)
	o.result.Responses.Round2 = &resp
	o.trackCost(resp)
	if resp.Failed() {
		return &core.DomainError{
			Category: core.ErrCatTransport,
			Code:     core.CodeSynthesisFailed,
			Message:  "judge call failed in round 2: " + resp.Error,
		}
	}

	artifact, err := ExtractSynthesis(resp.Content, o.result.SuccessfulRound1Agents())
	if err != nil {
		return &core.DomainError{
			Category: core.ErrCatExtraction,
			Code:     core.CodeSynthesisFailed,
			Message:  "round 2 synthesis yielded no artifact",
			Cause:    err,
		}
	}
	o.result.Artifacts.Synthesis = artifact
	o.result.RoundsCompleted = core.RoundSynthesis
	o.bus.Emit(events.NewRoundArtifactEvent(id, core.RoundSynthesis, ""))
	o.bus.Emit(events.NewRoundCompletedEvent(id, core.RoundSynthesis, 1, 0, o.result.ActualCostUSD))
	return nil
}

// runCrossExam never fails the consultation: an empty cross-exam artifact
// stands in when agents or the judge cannot deliver.
func (o *Orchestrator) runCrossExam(ctx context.Context, question string) {
	id := o.result.ConsultationID
	participants := o.result.Artifacts.Independent
	responses := make([]core.AgentResponse, len(participants))

	g, gctx := errgroup.WithContext(ctx)
	for i, artifact := range participants {
		agent, ok := o.panel.Get(artifact.AgentID)
		if !ok {
			continue
		}
		g.Go(func() error {
			prompt := o.strategy.CrossExamPrompt(question, artifact, o.result.Artifacts.Synthesis)
			messages := []core.Message{{Role: core.RoleUser, Content: prompt}}

			o.bus.Emit(events.NewAgentThinkingEvent(id, agent.Name, core.RoundCrossExam, agent.Model))
			resp := o.hedger.Execute(gctx, id, agent, core.RoundCrossExam, messages, agent.SystemPrompt)
			o.bus.Emit(events.NewAgentCompletedEvent(id, agent.Name, core.RoundCrossExam, resp.Model,
				resp.Tokens.Input, resp.Tokens.Output, resp.DurationMS, resp.Error))
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	succeeded, failed := 0, 0
	for _, resp := range responses {
		if resp.AgentID == "" {
			failed++
			continue
		}
		o.trackCost(resp)
		if resp.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	o.result.Responses.Round3 = responses

	artifact := &core.CrossExamArtifact{
		Round:      core.RoundCrossExam,
		Challenges: []core.Challenge{},
		Rebuttals:  []core.Rebuttal{},
		Unresolved: []string{},
	}
	if succeeded > 0 {
		prompt := o.strategy.CrossExamSynthesisPrompt(question, responses)
		judgeResp := o.judgeCall(ctx, prompt)
		o.result.Responses.Round3Synthesis = &judgeResp
		o.trackCost(judgeResp)
		if !judgeResp.Failed() {
			if extracted, err := ExtractCrossExam(judgeResp.Content); err == nil {
				artifact = extracted
			} else {
				o.logger.WithConsultation(id).WithRound(core.RoundCrossExam).
					Warn("cross-exam distillation unusable, continuing with empty artifact", "error", err)
			}
		}
	}
	o.result.Artifacts.CrossExam = artifact
	o.result.RoundsCompleted = core.RoundCrossExam
	o.bus.Emit(events.NewRoundArtifactEvent(id, core.RoundCrossExam, ""))
	o.bus.Emit(events.NewRoundCompletedEvent(id, core.RoundCrossExam, succeeded, failed, o.result.ActualCostUSD))
}

func (o *Orchestrator) runVerdict(ctx context.Context, question string) error {
	id := o.result.ConsultationID
	prompt := o.strategy.VerdictPrompt(question,
		o.result.Artifacts.Independent, o.result.Artifacts.Synthesis, o.result.Artifacts.CrossExam)

	resp := o.judgeCall(ctx, prompt)
	o.result.Responses.Round4 = &resp
	o.trackCost(resp)
	if resp.Failed() {
		return &core.DomainError{
			Category: core.ErrCatTransport,
			Code:     core.CodeVerdictFailed,
			Message:  "judge call failed in round 4: " + resp.Error,
		}
	}

	artifact, err := ExtractVerdict(resp.Content)
	if err != nil {
		return &core.DomainError{
			Category: core.ErrCatExtraction,
			Code:     core.CodeVerdictFailed,
			Message:  "round 4 verdict yielded no artifact",
			Cause:    err,
		}
	}
	o.result.Artifacts.Verdict = artifact
	o.result.RoundsCompleted = core.RoundVerdict
	o.bus.Emit(events.NewRoundArtifactEvent(id, core.RoundVerdict, ""))
	o.bus.Emit(events.NewRoundCompletedEvent(id, core.RoundVerdict, 1, 0, o.result.ActualCostUSD))
	return nil
}

// judgeCall issues a single-flight call to the judge model.
func (o *Orchestrator) judgeCall(ctx context.Context, prompt string) core.AgentResponse {
	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, DefaultCallTimeout)
	defer cancel()

	messages := []core.Message{{Role: core.RoleUser, Content: prompt}}
	resp, err := o.judge.Chat(callCtx, messages, "")
	if err != nil {
		return core.AgentResponse{
			AgentID:    "judge",
			Model:      o.judge.Model(),
			Provider:   o.judge.Name(),
			DurationMS: time.Since(started).Milliseconds(),
			Timestamp:  time.Now(),
			Error:      err.Error(),
		}
	}
	return core.AgentResponse{
		AgentID:  "judge",
		Model:    o.judge.Model(),
		Provider: o.judge.Name(),
		Content:  resp.Text,
		Tokens: core.TokenCount{
			Input:  resp.Usage.InputTokens,
			Output: resp.Usage.OutputTokens,
			Total:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		DurationMS: time.Since(started).Milliseconds(),
		Timestamp:  time.Now(),
	}
}

func (o *Orchestrator) trackCost(resp core.AgentResponse) {
	o.result.Cost.Tokens.Add(resp.Tokens)
	usd := ActualCost(resp.Model, resp.Tokens)
	o.result.Cost.USD += usd
	o.result.ActualCostUSD += usd
}

// guards runs the round-boundary checks: cooperative cancellation and the
// in-flight cost ceiling. Either failing aborts with a partial write.
func (o *Orchestrator) guards(estimate Estimate, started time.Time, round int) error {
	if o.cancelled.Load() {
		cancelErr := &core.DomainError{
			Category: core.ErrCatAdmission,
			Code:     core.CodeUserCancelled,
			Message:  fmt.Sprintf("consultation cancelled by user after round %d", round),
		}
		return o.abort(core.AbortUserCancelled, started, cancelErr)
	}

	limit := estimate.USD * costOverrunFactor
	if o.result.ActualCostUSD > limit && !o.opts.AllowCostOverruns {
		o.result.CostExceeded = true
		return o.abort(core.AbortCostExceeded, started,
			core.ErrCostExceeded(o.result.ActualCostUSD, limit))
	}
	return nil
}

func (o *Orchestrator) checkpoint(round int) {
	if o.checkpoints == nil {
		return
	}
	// Checkpoint failures are non-critical: log and move on.
	if err := o.checkpoints.Save(o.result, round, o.machine.Current()); err != nil {
		o.logger.WithConsultation(o.result.ConsultationID).WithRound(round).
			Warn("checkpoint write failed", "error", err)
	}
}

// abort freezes the machine, writes the partial record, and seals the
// result as aborted.
func (o *Orchestrator) abort(cause core.AbortCause, started time.Time, err error) error {
	_ = o.machine.Abort(cause)
	o.sealAborted(cause, started)

	if o.partials != nil {
		// A failed partial write is a best-effort concession: the
		// consultation already failed for another reason.
		if werr := o.partials.Write(o.result, cause); werr != nil {
			o.logger.WithConsultation(o.result.ConsultationID).
				Warn("partial result write failed", "error", werr)
		}
	}
	o.bus.Emit(events.NewConsultationAbortedEvent(o.result.ConsultationID, string(cause), o.result.RoundsCompleted))
	o.logger.WithConsultation(o.result.ConsultationID).
		Error("consultation aborted", "cause", string(cause), "rounds_completed", o.result.RoundsCompleted)
	return err
}

func (o *Orchestrator) sealAborted(cause core.AbortCause, started time.Time) {
	now := time.Now()
	o.result.State = o.machine.Current()
	o.result.Status = core.StatusAborted
	o.result.AbortReason = WireAbortReason(cause)
	o.result.DurationMS = now.Sub(started).Milliseconds()
	o.result.CompletedAt = &now
	o.derivePerspectives()
}

// sealQuickResult derives a best-effort consensus from the top-confidence
// Round 1 artifact when only one round was requested.
func (o *Orchestrator) sealQuickResult() {
	best := core.IndependentArtifact{}
	for _, a := range o.result.Artifacts.Independent {
		if a.Confidence >= best.Confidence {
			best = a
		}
	}
	o.result.Consensus = best.Position
	o.result.Recommendation = best.Position
	o.result.Confidence = best.Confidence
}

// sealEarlyTermination records the synthesis's top consensus as the
// outcome and the savings from the skipped rounds.
func (o *Orchestrator) sealEarlyTermination() {
	o.sealFromSynthesis()
	skipped := o.opts.MaxRounds - core.RoundSynthesis
	o.result.EarlyTerminationSavingsUSD = EarlyTerminationSavings(o.panel, skipped)
}

func (o *Orchestrator) sealFromSynthesis() {
	if top, ok := o.result.Artifacts.Synthesis.TopConsensus(); ok {
		o.result.Consensus = top.Point
		o.result.Recommendation = top.Point
		o.result.Confidence = top.Confidence
	}
	if o.result.Artifacts.CrossExam != nil {
		o.result.Concerns = o.result.Artifacts.CrossExam.Unresolved
	}
}

func (o *Orchestrator) sealFromVerdict() {
	verdict := o.result.Artifacts.Verdict
	o.result.Consensus = verdict.Recommendation
	o.result.Recommendation = verdict.Recommendation
	o.result.Confidence = verdict.Confidence
	o.result.Dissent = verdict.Dissent
	if o.result.Artifacts.CrossExam != nil {
		o.result.Concerns = o.result.Artifacts.CrossExam.Unresolved
	}
}

func (o *Orchestrator) derivePerspectives() {
	perspectives := make([]core.Perspective, 0, len(o.result.Artifacts.Independent))
	for _, a := range o.result.Artifacts.Independent {
		perspectives = append(perspectives, core.Perspective{
			Agent:      a.AgentID,
			Position:   a.Position,
			Confidence: a.Confidence,
		})
	}
	o.result.Perspectives = perspectives
}

func (o *Orchestrator) complete(started time.Time) (*core.ConsultationResult, error) {
	if err := o.machine.Transition(core.StateComplete); err != nil {
		return o.result, err
	}
	now := time.Now()
	o.result.State = core.StateComplete
	o.result.Status = core.StatusComplete
	o.result.DurationMS = now.Sub(started).Milliseconds()
	o.result.CompletedAt = &now
	o.derivePerspectives()

	o.bus.Emit(events.NewConsultationCompletedEvent(o.result.ConsultationID,
		o.result.RoundsCompleted, o.result.Confidence, o.result.ActualCostUSD, o.result.DurationMS))
	o.logger.WithConsultation(o.result.ConsultationID).Info("consultation complete",
		"rounds", o.result.RoundsCompleted,
		"confidence", o.result.Confidence,
		"cost_usd", o.result.ActualCostUSD)
	return o.result, nil
}
