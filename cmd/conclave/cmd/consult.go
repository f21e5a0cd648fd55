package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/config"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/consult"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/events"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/format"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/providers"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/scrub"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/store"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/web"
)

var (
	consultMaxRounds     int
	consultMode          string
	consultConfidence    float64
	consultQuick         bool
	consultVerbose       bool
	consultGreenfield    bool
	consultAllowOverruns bool
	consultContextFile   string
	consultProjectPath   string
	consultPanelFile     string
	consultOutputDir     string
	consultAgents        []string
	consultServe         bool
	consultShowReport    bool
)

var consultCmd = &cobra.Command{
	Use:   "consult [question]",
	Short: "Run a panel consultation on a question",
	Long: `consult puts the question to the configured panel and runs the debate.
The sealed result is written as consult-<id>.json and consult-<id>.md in
the output directory, and recorded in the history store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsult,
}

func init() {
	rootCmd.AddCommand(consultCmd)

	consultCmd.Flags().IntVar(&consultMaxRounds, "max-rounds", 4, "debate rounds (1-4)")
	consultCmd.Flags().StringVar(&consultMode, "mode", "converge", "debate mode (converge, explore)")
	consultCmd.Flags().Float64Var(&consultConfidence, "confidence-threshold", 0.90,
		"minimum consensus confidence for early termination")
	consultCmd.Flags().BoolVar(&consultQuick, "quick", false, "single-round consultation (forces max-rounds=1)")
	consultCmd.Flags().BoolVarP(&consultVerbose, "verbose", "v", false, "include full round transcripts in output")
	consultCmd.Flags().BoolVar(&consultGreenfield, "greenfield", false, "treat the question as a greenfield design")
	consultCmd.Flags().BoolVar(&consultAllowOverruns, "allow-cost-overruns", false,
		"continue past the in-flight cost guard")
	consultCmd.Flags().StringVar(&consultContextFile, "context", "", "file with additional context (scrubbed before sending)")
	consultCmd.Flags().StringVar(&consultProjectPath, "project", "", "project path recorded with the consultation")
	consultCmd.Flags().StringVar(&consultPanelFile, "panel", "", "panel definition YAML (default: built-in panel)")
	consultCmd.Flags().StringVarP(&consultOutputDir, "output-dir", "o", "", "directory for result files")
	consultCmd.Flags().StringSliceVar(&consultAgents, "agents", nil, "subset of panel agents to consult")
	consultCmd.Flags().BoolVar(&consultServe, "serve", false, "expose the local status server while running")
	consultCmd.Flags().BoolVar(&consultShowReport, "show-report", false, "render the markdown report to the terminal")

	_ = viper.BindPFlag("consult.maxRounds", consultCmd.Flags().Lookup("max-rounds"))
	_ = viper.BindPFlag("consult.mode", consultCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("consult.confidenceThreshold", consultCmd.Flags().Lookup("confidence-threshold"))
	_ = viper.BindPFlag("consult.allowCostOverruns", consultCmd.Flags().Lookup("allow-cost-overruns"))
	_ = viper.BindPFlag("consult.outputDir", consultCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("panel.file", consultCmd.Flags().Lookup("panel"))
}

func runConsult(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	panelFile, err := config.LoadPanel(firstNonEmpty(consultPanelFile, cfg.Panel.File))
	if err != nil {
		return err
	}
	panel, err := selectAgents(core.Panel(panelFile.Agents), consultAgents)
	if err != nil {
		return err
	}

	judgeProvider := firstNonEmpty(panelFile.Judge.Provider, cfg.Judge.Provider)
	judgeModel := firstNonEmpty(panelFile.Judge.Model, cfg.Judge.Model)
	registry, judge, err := providers.BuildRegistry(panel, judgeProvider, judgeModel)
	if err != nil {
		return err
	}

	thresholds, err := config.NewGlobalStore(cfgFile)
	if err != nil {
		return err
	}
	prompter := newTerminalPrompter()
	gate := consult.NewCostGate(thresholds, prompter, logger)

	// The gate re-reads the threshold on each check, so an edit to the
	// config file mid-consultation takes effect; the watcher just makes
	// the change visible in the log.
	if watcher, werr := config.WatchFile(thresholds.Path(), logger.Logger, func() {
		logger.Info("auto-approve threshold updated", "always_allow_under", thresholds.AlwaysAllowUnder())
	}); werr != nil {
		logger.Debug("config watcher unavailable", "error", werr)
	} else {
		defer watcher.Close()
	}

	outputDir := firstNonEmpty(consultOutputDir, cfg.Consult.OutputDir, ".")
	bus := events.Default()
	hedger := consult.NewHedger(registry, consult.NewHealthTracker(), bus, logger,
		consult.WithFallbackPrompter(prompter))
	partials := consult.NewPartialWriter(outputDir, logger)
	checkpoints := consult.NewCheckpointWriter(outputDir, logger)

	contextText, findings, err := loadContext(consultContextFile)
	if err != nil {
		return err
	}

	maxRounds := consultMaxRounds
	if consultQuick {
		maxRounds = 1
	}
	opts := consult.Options{
		MaxRounds:           maxRounds,
		Verbose:             consultVerbose,
		Mode:                consultMode,
		ConfidenceThreshold: consultConfidence,
		ProjectPath:         consultProjectPath,
		Greenfield:          consultGreenfield,
		LoadedContext:       contextText,
		ScrubbingFindings:   findings,
		AllowCostOverruns:   consultAllowOverruns,
	}

	orch, err := consult.NewOrchestrator(panel, judge, hedger, gate, partials, checkpoints, bus, logger, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("cancellation requested; finishing the current round")
		orch.Cancel()
		<-sigCh
		cancel()
	}()

	if consultServe {
		tracker := web.NewTracker(bus)
		defer tracker.Close()
		srv := web.New(statusServerConfig(), tracker, logger.Logger)
		_ = srv.Start()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	result, consultErr := orch.Consult(ctx, question, contextText)

	if result != nil {
		persistResult(outputDir, result)
	}

	if consultErr != nil {
		if core.IsCategory(consultErr, core.ErrCatAdmission) {
			// User cancellation is a clean exit.
			fmt.Fprintln(os.Stderr, "consultation cancelled")
			return nil
		}
		return consultErr
	}

	fmt.Println(format.Summary(result))
	if consultShowReport {
		fmt.Println(format.RenderTerminal(format.Markdown(result)))
	}
	return nil
}

// persistResult writes the result files and the history record. Failures
// here are reported but do not mask the consultation outcome.
func persistResult(outputDir string, result *core.ConsultationResult) {
	if _, err := format.WriteJSON(outputDir, result); err != nil {
		logger.Error("writing result file", "error", err)
	}
	if _, err := format.WriteMarkdown(outputDir, result); err != nil {
		logger.Error("writing report file", "error", err)
	}

	historyStore, err := openStore()
	if err != nil {
		logger.Warn("history store unavailable", "error", err)
		return
	}
	defer historyStore.Close()
	if err := historyStore.Save(context.Background(), result); err != nil {
		logger.Warn("recording history", "error", err)
	}
}

func openStore() (core.ResultStore, error) {
	path := cfg.Store.Path
	if path == "" {
		resolved, err := config.DefaultStorePath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	return store.New(cfg.Store.Backend, path)
}

func statusServerConfig() web.Config {
	c := web.DefaultConfig()
	if cfg.Web.Addr != "" {
		c.Addr = cfg.Web.Addr
	}
	return c
}

// selectAgents filters the panel to the requested names. Unknown names
// fail with a fuzzy-matched suggestion.
func selectAgents(panel core.Panel, requested []string) (core.Panel, error) {
	if len(requested) == 0 {
		return panel, nil
	}

	names := panel.Names()
	var selected core.Panel
	for _, name := range requested {
		agent, ok := panel.Get(name)
		if !ok {
			msg := fmt.Sprintf("unknown agent %q (panel: %s)", name, strings.Join(names, ", "))
			if matches := fuzzy.Find(name, names); len(matches) > 0 {
				msg = fmt.Sprintf("unknown agent %q, did you mean %q?", name, matches[0].Str)
			}
			return nil, core.ErrValidation(core.CodeInvalidAgent, msg)
		}
		selected = append(selected, agent)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return panelIndex(panel, selected[i].Name) < panelIndex(panel, selected[j].Name)
	})
	return selected, nil
}

func panelIndex(panel core.Panel, name string) int {
	for i, a := range panel {
		if a.Name == name {
			return i
		}
	}
	return len(panel)
}

// loadContext reads and scrubs the optional context file. Secrets are
// replaced before the text ever reaches a provider.
func loadContext(path string) (string, int, error) {
	if path == "" {
		return "", 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("reading context file: %w", err)
	}

	cleaned, report := scrub.Scrub(string(data))
	if !report.Clean() {
		logger.Warn("context contained secrets; scrubbed before sending",
			"findings", report.Total)
	}
	return cleaned, report.Total, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
