package main

import (
	"fmt"

	"medhead-reservation/internal/service"

	"github.com/spf13/cobra"
)

func specialitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "specialities [prefix]",
		Short: "List known specialities, or those starting with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := service.NewDefaultSpecialityCatalog()
			if err != nil {
				return err
			}

			names := catalog.Names()
			if len(args) == 1 {
				names = catalog.Filter(args[0])
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
