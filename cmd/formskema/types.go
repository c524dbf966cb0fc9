package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTypesCmd(root *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the types declared by the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := root.registry()
			if err != nil {
				return err
			}
			for _, name := range reg.Names() {
				t, _ := reg.Type(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, t.JSONType())
			}
			return nil
		},
	}
}
