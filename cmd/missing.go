package cmd

import (
	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/spf13/cobra"
)

var missingCmd = &cobra.Command{
	Use:   "missing [POSTCODE]",
	Short: "Check parameters and list the optional filters still unset",
	Long: `Inspect a partial search without generating a URL.

Reports whether a usable postcode is present, which fields were given, which
optional filters are still open, and any values that would be rejected.
Takes the same flags as 'bbcompare url'.`,
	Example: `  bbcompare missing -p "E14 9WW" --speed 100Mb
  bbcompare missing --providers BT --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		in := params.Inspect(rawFromFlags(cmd, args))
		result := model.NewResult(model.KindInspection, "missing", &in, len(in.MissingOptional))
		return emit(deps, cmd.OutOrStdout(), result, resolveFormat(deps.Config.Format))
	},
}

func init() {
	rootCmd.AddCommand(missingCmd)
	addParamFlags(missingCmd)
}
