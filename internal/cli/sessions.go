package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse past practice sessions",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
	listCmd.Flags().IntP("limit", "n", 20, "max results")

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session with transcript and report",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}

	sessionsCmd.AddCommand(listCmd, showCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	recs, err := app.Records(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}
	fmt.Fprintf(out, "%-38s %-22s %-8s %-12s %s\n", "SESSION", "CREATED", "LANG", "PERSONA", "TURNS")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, r := range recs {
		fmt.Fprintf(out, "%-38s %-22s %-8s %-12s %d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Preferences.Language, r.Preferences.Persona, len(r.Transcript))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	rec, err := app.Record(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), rec)
}
