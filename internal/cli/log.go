package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/rapidfit/internal/userdata"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newLogCmd() *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Exercise log",
	}

	addCmd := &cobra.Command{
		Use:   "add <exercise>",
		Short: "Add an exercise log entry",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			sets, _ := cmd.Flags().GetInt("sets")
			reps, _ := cmd.Flags().GetInt("reps")
			weight, _ := cmd.Flags().GetFloat64("weight")
			notes, _ := cmd.Flags().GetString("notes")
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().Format(dateLayout)
			}

			ctx := cmd.Context()
			if _, err := a.load(ctx); err != nil {
				return err
			}
			entries, err := a.exerciseLog()
			if err != nil {
				return err
			}
			entries = append(entries, userdata.ExerciseLogEntry{
				Exercise: args[0],
				Sets:     sets,
				Reps:     reps,
				Weight:   weight,
				Date:     date,
				Notes:    notes,
			})

			raw, err := json.Marshal(entries)
			if err != nil {
				return err
			}
			// validates the entries and assigns the new entry its id
			normalized, err := userdata.NormalizePayload(a.catalog, userdata.DataTypeExerciseLog, raw)
			if err != nil {
				return err
			}
			if err := a.warnOffline(a.session.Set(ctx, userdata.DataTypeExerciseLog, normalized)); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Logged %s: %dx%d @ %g\n", args[0], sets, reps, weight)
			return nil
		}),
	}
	addCmd.Flags().Int("sets", 0, "Number of sets")
	addCmd.Flags().Int("reps", 0, "Repetitions per set")
	addCmd.Flags().Float64("weight", 0, "Weight")
	addCmd.Flags().String("notes", "", "Notes")
	addCmd.Flags().String("date", "", "Date as YYYY-MM-DD, today when empty")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the exercise log",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if _, err := a.load(cmd.Context()); err != nil {
				return err
			}
			entries, err := a.exerciseLog()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "No exercises logged.")
				return nil
			}

			fmt.Fprintf(a.out, "%-10s  %-24s  %-5s  %-5s  %-7s  %s\n", "Date", "Exercise", "Sets", "Reps", "Weight", "Notes")
			fmt.Fprintln(a.out, strings.Repeat("-", 72))
			for _, e := range entries {
				fmt.Fprintf(a.out, "%-10s  %-24s  %-5d  %-5d  %-7g  %s\n", e.Date, e.Exercise, e.Sets, e.Reps, e.Weight, e.Notes)
			}
			return nil
		}),
	}

	logCmd.AddCommand(addCmd)
	logCmd.AddCommand(listCmd)
	return logCmd
}

func (a *app) exerciseLog() ([]userdata.ExerciseLogEntry, error) {
	var entries []userdata.ExerciseLogEntry
	if err := json.Unmarshal(a.session.Get(userdata.DataTypeExerciseLog), &entries); err != nil {
		return nil, fmt.Errorf("decode exercise log: %w", err)
	}
	return entries, nil
}
