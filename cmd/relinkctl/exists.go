package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExistsCmd(a *app) *cobra.Command {
	var archivedOnly bool
	cmd := &cobra.Command{
		Use:   "exists PATH...",
		Short: "Report whether game paths resolve to a file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine()
			if err != nil {
				return err
			}
			defer e.Close()

			missing := 0
			for _, p := range args {
				ok := e.FileExists(p, !archivedOnly, true)
				if !ok {
					missing++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%t\t%s\n", ok, p)
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d paths not found", missing, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archivedOnly, "archived", false, "only consider files stored in the archive blobs")
	return cmd
}
