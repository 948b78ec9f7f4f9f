package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List available tutor personas",
		Args:  cobra.NoArgs,
		RunE:  runPersonas,
	}
	cmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(cmd)
}

func runPersonas(cmd *cobra.Command, args []string) error {
	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	personas := app.Registry().Personas()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), personas)
	}

	defaultID := app.Registry().ResolvePersona("").ID
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVOICE\tDEFAULT")
	for _, p := range personas {
		mark := ""
		if p.ID == defaultID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.DisplayName, p.Voice, mark)
	}
	return w.Flush()
}
