package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/parlance/realtime"
)

func init() {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the tutor instructions for a set of preferences",
		Long: `Print the instructions that start-session would send to the realtime
voice model. With --payload the full session configuration is printed.

Examples:
  parlance compile --language fr --personality fizz --speed fast
  parlance compile -l ja -p jazz --memory "Learner lives in Osaka" --payload`,
		Args: cobra.NoArgs,
		RunE: runCompile,
	}
	addPreferenceFlags(cmd)
	cmd.Flags().StringArray("memory", nil, "memory fact to include (repeatable)")
	cmd.Flags().Bool("stored", false, "include the persona's stored memories")
	cmd.Flags().Bool("payload", false, "print the realtime session configuration as JSON")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	prefs := preferencesFromFlags(cmd)
	memories, _ := cmd.Flags().GetStringArray("memory")
	if stored, _ := cmd.Flags().GetBool("stored"); stored {
		facts, err := app.Memories(cmd.Context(), prefs.Persona)
		if err != nil {
			return fmt.Errorf("load memories: %w", err)
		}
		for _, f := range facts {
			memories = append(memories, f.Text)
		}
	}

	instructions := app.Compile(prefs, memories)

	if payload, _ := cmd.Flags().GetBool("payload"); payload {
		persona := app.Registry().ResolvePersona(prefs.Persona)
		return printJSON(cmd.OutOrStdout(), realtime.BuildConfig(instructions, persona, prefs.Language))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), instructions)
	return err
}
