package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/parlance/core"
)

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "Inspect or clear persona memories",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list <persona>",
		Short: "List the memories a persona keeps about the learner",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemoriesList,
	}
	listCmd.Flags().StringP("query", "q", "", "only show memories containing this text")
	listCmd.Flags().IntP("limit", "n", 0, "max results (0 for all)")
	clearCmd := &cobra.Command{
		Use:   "clear <persona>",
		Short: "Delete every memory of a persona",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemoriesClear,
	}

	memoriesCmd.AddCommand(listCmd, clearCmd)
	rootCmd.AddCommand(memoriesCmd)
}

func runMemoriesList(cmd *cobra.Command, args []string) error {
	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	var facts []core.MemoryFact
	if query != "" || limit > 0 {
		facts, err = app.SearchMemories(cmd.Context(), args[0], query, limit)
	} else {
		facts, err = app.Memories(cmd.Context(), args[0])
	}
	if err != nil {
		return fmt.Errorf("list memories: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), facts)
}

func runMemoriesClear(cmd *cobra.Command, args []string) error {
	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Registry().HasPersona(args[0]) {
		return fmt.Errorf("unknown persona %q", args[0])
	}
	if err := app.ClearMemories(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"persona":%q}`+"\n", args[0])
	return err
}
