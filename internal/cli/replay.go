package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/realtime"
	"github.com/hupe1980/parlance/transcript"
)

func init() {
	cmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Rebuild a transcript from recorded realtime events",
		Long: `Read recorded realtime server events (one JSON object per line), rebuild
the transcript and print it. With --summarize the transcript is also sent to
the configured summary provider and the report is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
	addPreferenceFlags(cmd)
	cmd.Flags().Bool("summarize", false, "generate the feedback report")
	rootCmd.AddCommand(cmd)
}

// replayFile decodes every line of path and returns the finalized transcript
// and the number of server error events seen.
func replayFile(path string) (core.Transcript, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := realtime.NewDecoder()
	agg := transcript.New()
	serverErrors := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		ev, ok, err := dec.Decode(raw)
		var serr *realtime.ServerError
		switch {
		case errors.As(err, &serr):
			serverErrors++
			continue
		case err != nil:
			return nil, serverErrors, fmt.Errorf("line %d: %w", line, err)
		case !ok:
			continue
		}
		agg.OnEvent(ev)
	}
	if err := sc.Err(); err != nil {
		return nil, serverErrors, err
	}

	tr, err := agg.Finalize()
	return tr, serverErrors, err
}

func runReplay(cmd *cobra.Command, args []string) error {
	tr, serverErrors, err := replayFile(args[0])
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, t := range tr {
		label := "Tutor"
		if t.Role == core.RoleUser {
			label = "Learner"
		}
		fmt.Fprintf(out, "%s: %s\n", label, t.Text)
	}
	if serverErrors > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d server error event(s) skipped\n", serverErrors)
	}

	if summarize, _ := cmd.Flags().GetBool("summarize"); !summarize {
		return nil
	}

	_, app, _, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Summarize(cmd.Context(), tr, preferencesFromFlags(cmd), nil)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	fmt.Fprintln(out)
	return printJSON(out, res)
}
