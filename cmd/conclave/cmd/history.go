package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/format"
)

var (
	historyJSON bool
	historyLast int
)

var historyCmd = &cobra.Command{
	Use:   "history [consultation-id]",
	Short: "List or show past consultations",
	Long: `Without arguments, lists stored consultations newest first. With a
consultation ID, prints that consultation's full report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "emit JSON instead of a table")
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 0, "show only the most recent N consultations")
}

func runHistory(cmd *cobra.Command, args []string) error {
	historyStore, err := openStore()
	if err != nil {
		return err
	}
	defer historyStore.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		result, err := historyStore.Load(ctx, args[0])
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("no consultation with id %s", args[0])
		}
		if historyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Println(format.RenderTerminal(format.Markdown(result)))
		return nil
	}

	summaries, err := historyStore.List(ctx)
	if err != nil {
		return err
	}
	if historyLast > 0 && historyLast < len(summaries) {
		summaries = summaries[:historyLast]
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("no consultations recorded")
		return nil
	}
	fmt.Printf("%-38s %-9s %-9s %6s %9s  %s\n", "ID", "MODE", "STATUS", "CONF", "COST", "QUESTION")
	for _, s := range summaries {
		fmt.Printf("%-38s %-9s %-9s %5.0f%% %8.4f$  %s\n",
			s.ConsultationID, s.Mode, s.Status, s.Confidence*100, s.CostUSD, s.Question)
	}
	return nil
}
