package cli

import (
	"fmt"
	"sort"

	"github.com/2beens/rapidfit/internal/userdata"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge local data with the server copy",
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !a.client.Authenticated() {
				fmt.Fprintln(a.out, "Not logged in, nothing to sync")
				return nil
			}
			return syncAndReport(cmd, a)
		}),
	}
}

func syncAndReport(cmd *cobra.Command, a *app) error {
	report, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	if report.RemoteErr != nil {
		return nil
	}

	sortDataTypes(report.Pushed)
	for _, dt := range report.Pulled {
		fmt.Fprintf(a.out, "pulled %s\n", dt)
	}
	for _, dt := range report.Pushed {
		fmt.Fprintf(a.out, "pushed %s\n", dt)
	}
	if len(report.Pulled) == 0 && len(report.Pushed) == 0 {
		fmt.Fprintln(a.out, "Everything up to date")
	}
	return nil
}

// pushes finish in any order.
func sortDataTypes(types []userdata.DataType) {
	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})
}
