package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/config"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/diagnostics"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment readiness",
	Long:  "Verify API keys, writable paths, and system resources before a consultation spends money.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "emit the report as JSON")
}

func runDoctor(_ *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		resolved, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = resolved
	}

	outputDir := cfg.Consult.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	report := diagnostics.NewDoctor(configPath, outputDir).Run()

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Print(diagnostics.Render(report))
	}

	if !report.Healthy() {
		return fmt.Errorf("environment not ready")
	}
	return nil
}
