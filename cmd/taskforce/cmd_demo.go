package main

import (
	"github.com/nidhogg/taskforce/internal/dataset"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "demo-csv",
		Short: "Print the built-in demo air-quality dataset as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return dataset.WriteCSV(cmd.OutOrStdout(), dataset.Demo(city))
		},
	}
	cmd.Flags().StringVar(&city, "city", "Karachi", "city column value")
	return cmd
}
