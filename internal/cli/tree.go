package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/rapidfit/internal/rapidtree"
	"github.com/2beens/rapidfit/internal/userdata"

	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Show and update the rapid tree",
	}

	treeCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the rapid tree",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			doc, err := a.loadTree(cmd)
			if err != nil {
				return err
			}
			printTree(a, doc)
			return nil
		}),
	})

	treeCmd.AddCommand(&cobra.Command{
		Use:   "complete <category> <node>",
		Short: "Mark an unlocked node as completed",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			return a.updateTree(cmd, func(doc rapidtree.Document) (rapidtree.Document, bool) {
				return doc.Complete(args[0], args[1])
			}, fmt.Sprintf("cannot complete %s/%s: unknown or locked node", args[0], args[1]))
		}),
	})

	treeCmd.AddCommand(&cobra.Command{
		Use:   "reset <category> <node>",
		Short: "Reset a node whose successor is not completed",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			return a.updateTree(cmd, func(doc rapidtree.Document) (rapidtree.Document, bool) {
				return doc.Reset(args[0], args[1])
			}, fmt.Sprintf("cannot reset %s/%s: unknown node or its successor is completed", args[0], args[1]))
		}),
	})

	treeCmd.AddCommand(&cobra.Command{
		Use:   "reset-all",
		Short: "Reset the whole tree",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			return a.updateTree(cmd, func(rapidtree.Document) (rapidtree.Document, bool) {
				return rapidtree.ResetAll(a.catalog), true
			}, "")
		}),
	})

	return treeCmd
}

func (a *app) loadTree(cmd *cobra.Command) (rapidtree.Document, error) {
	if _, err := a.load(cmd.Context()); err != nil {
		return rapidtree.Document{}, err
	}
	doc, err := rapidtree.Deserialize(a.catalog, a.session.Get(userdata.DataTypeRapidTreeProgress))
	if errors.Is(err, rapidtree.ErrCorruptedProgress) {
		fmt.Fprintln(a.out, "warning: stored progress is corrupted, starting over")
		return doc, nil
	}
	return doc, err
}

func (a *app) updateTree(
	cmd *cobra.Command,
	apply func(rapidtree.Document) (rapidtree.Document, bool),
	rejectedMsg string,
) error {
	doc, err := a.loadTree(cmd)
	if err != nil {
		return err
	}

	updated, ok := apply(doc)
	if !ok {
		return errors.New(rejectedMsg)
	}

	blob, err := rapidtree.Serialize(updated)
	if err != nil {
		return fmt.Errorf("serialize rapid tree: %w", err)
	}
	if err := a.warnOffline(a.session.Set(cmd.Context(), userdata.DataTypeRapidTreeProgress, blob)); err != nil {
		return err
	}

	printTree(a, updated)
	return nil
}

func printTree(a *app, doc rapidtree.Document) {
	view := doc.View()
	for _, category := range view.Categories {
		fmt.Fprintln(a.out, strings.ToUpper(category.Name))
		for _, node := range category.Nodes {
			marker := "[ ]"
			switch node.State {
			case rapidtree.StateCompleted:
				marker = "[x]"
			case rapidtree.StateLocked:
				marker = "[-]"
			}
			fmt.Fprintf(a.out, "  %s %-12s %s (%s)\n", marker, node.ID, node.Title, node.Level)
		}
	}
	fmt.Fprintf(a.out, "Progress: %d%%\n", view.Progress)
}
