package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/render"
	"github.com/derickschaefer/bbcompare/internal/store"
	"github.com/spf13/cobra"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Save and replay named searches",
	Long: `Saved searches keep a set of search parameters under a name so the
URL can be generated again later. Parameters are re-validated on every run.

  bbcompare saved save home -p "E14 9WW" --speed 100Mb --providers BT,Sky
  bbcompare saved list
  bbcompare saved run home`,
}

// ─── saved save ───────────────────────────────────────────────────────────────

var savedSaveCmd = &cobra.Command{
	Use:   "save <NAME>",
	Short: "Save search parameters under a name",
	Long: `Save search parameters under a name. Saving again under the same
name (case-insensitive) replaces the parameters and keeps the ID.

Parameters are checked before saving; invalid values are rejected.`,
	Example: `  bbcompare saved save home -p "E14 9WW" --speed 100Mb
  bbcompare saved save office -p EC1A1BB --product-type broadband,phone --sort-by "Avg. Monthly Cost"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return errors.New("name must not be empty")
		}
		raw := rawFromFlags(cmd, nil)
		if _, err := params.Build(raw); err != nil {
			return fmt.Errorf("not saved: %w", err)
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		saved, err := deps.Store.PutSearch(model.SavedSearch{Name: name, Params: raw})
		if err != nil {
			return fmt.Errorf("saving search: %w", err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved search %q  (%s)\n", saved.Name, saved.ID)
		}
		return nil
	},
}

// ─── saved list ───────────────────────────────────────────────────────────────

var savedListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List saved searches",
	Example: `  bbcompare saved list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		list, err := deps.Store.ListSearches()
		if err != nil {
			return fmt.Errorf("listing saved searches: %w", err)
		}
		format := resolveFormat(deps.Config.Format)
		if len(list) == 0 && format == render.FormatTable {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved searches.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: bbcompare saved save <name> --postcode <postcode> [filters]")
			return nil
		}
		if list == nil {
			list = []model.SavedSearch{}
		}
		result := model.NewResult(model.KindSavedSearch, "saved list", list, len(list))
		return emit(deps, cmd.OutOrStdout(), result, format)
	},
}

// ─── saved show ───────────────────────────────────────────────────────────────

var savedShowCmd = &cobra.Command{
	Use:     "show <NAME|ID>",
	Short:   "Show the parameters of a saved search",
	Example: `  bbcompare saved show home`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		s, ok, err := deps.Store.GetSearch(args[0])
		if err != nil {
			return fmt.Errorf("reading saved search: %w", err)
		}
		if !ok {
			return fmt.Errorf("saved search %q not found", args[0])
		}
		result := model.NewResult(model.KindSavedSearch, "saved show", &s, 1)
		return emit(deps, cmd.OutOrStdout(), result, resolveFormat(deps.Config.Format))
	},
}

// ─── saved run ────────────────────────────────────────────────────────────────

var savedRunOpen bool

var savedRunCmd = &cobra.Command{
	Use:   "run <NAME|ID>",
	Short: "Generate the URL for a saved search",
	Example: `  bbcompare saved run home
  bbcompare saved run home --open`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		s, ok, err := deps.Store.GetSearch(args[0])
		if err != nil {
			return fmt.Errorf("reading saved search: %w", err)
		}
		if !ok {
			return fmt.Errorf("saved search %q not found", args[0])
		}

		result, res := generate(deps, "saved run", "saved", s.Params)
		if res.Success {
			if err := deps.Store.RecordRun(s.ID, res.URL); err != nil {
				deps.Logger.Warn("recording saved search run", "name", s.Name, "error", err)
			}
		}

		format := resolveFormat(deps.Config.Format)
		if savedRunOpen {
			format = render.FormatURL
		}
		if err := emit(deps, cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("saved search %q no longer produces a URL", s.Name)
		}
		return nil
	},
}

// ─── saved delete ─────────────────────────────────────────────────────────────

var savedDeleteCmd = &cobra.Command{
	Use:     "delete <NAME|ID>",
	Short:   "Delete a saved search",
	Example: `  bbcompare saved delete home`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}

		if err := deps.Store.DeleteSearch(args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("saved search %q not found", args[0])
			}
			return fmt.Errorf("deleting saved search: %w", err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted saved search %q\n", args[0])
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(savedCmd)
	savedCmd.AddCommand(savedSaveCmd)
	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedShowCmd)
	savedCmd.AddCommand(savedRunCmd)
	savedCmd.AddCommand(savedDeleteCmd)

	addParamFlags(savedSaveCmd)
	savedRunCmd.Flags().BoolVar(&savedRunOpen, "open", false, "print only the URL")
}
