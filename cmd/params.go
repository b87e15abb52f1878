package cmd

import (
	"fmt"
	"strings"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params [FIELD]",
	Short: "List search parameters and their valid values",
	Long: `List every search parameter, whether it is required, and the exact
values it accepts. Give a field name to show just that field.`,
	Example: `  bbcompare params
  bbcompare params sortBy
  bbcompare params --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := params.Help()
		if len(args) == 1 {
			f, err := lookupField(fields, args[0])
			if err != nil {
				return err
			}
			fields = []params.FieldHelp{f}
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		result := model.NewResult(model.KindParameterHelp, "params", fields, len(fields))
		return emit(deps, cmd.OutOrStdout(), result, resolveFormat(deps.Config.Format))
	},
}

// lookupField finds a field by name, ignoring case. "speed" is accepted for
// speedInMb.
func lookupField(fields []params.FieldHelp, name string) (params.FieldHelp, error) {
	if strings.EqualFold(name, "speed") {
		name = params.FieldSpeed
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
		names = append(names, f.Name)
	}
	return params.FieldHelp{}, fmt.Errorf("unknown parameter %q\n\nValid parameters: %s", name, strings.Join(names, ", "))
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}
