package cmd

import (
	"fmt"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show and clear the log of generated URLs",
	Long: `Every generation from the CLI, the HTTP API and the MCP server is
recorded in the local database unless --no-history is set or record_history
is false in config.json. The newest entries are kept.`,
}

// ─── history list ─────────────────────────────────────────────────────────────

var (
	historyLimit      int
	historyFailedOnly bool
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generations, newest first",
	Example: `  bbcompare history list
  bbcompare history list --limit 100 --format jsonl
  bbcompare history list --failed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		limit := historyLimit
		if historyFailedOnly {
			limit = 0
		}
		entries, err := deps.Store.ListHistory(limit)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		if historyFailedOnly {
			entries = failedEntries(entries, historyLimit)
		}
		if entries == nil {
			entries = []model.HistoryEntry{}
		}

		result := model.NewResult(model.KindHistory, "history list", entries, len(entries))
		return emit(deps, cmd.OutOrStdout(), result, resolveFormat(deps.Config.Format))
	},
}

// failedEntries keeps up to limit unsuccessful entries; limit <= 0 keeps all.
func failedEntries(entries []model.HistoryEntry, limit int) []model.HistoryEntry {
	var out []model.HistoryEntry
	for _, e := range entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !e.Success {
			out = append(out, e)
		}
	}
	return out
}

// ─── history clear ────────────────────────────────────────────────────────────

var historyClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete all history entries",
	Example: `  bbcompare history clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		if err := deps.Store.ClearHistory(); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared history")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show (0 = all)")
	historyListCmd.Flags().BoolVar(&historyFailedOnly, "failed", false, "only show generations that produced no URL")
}
