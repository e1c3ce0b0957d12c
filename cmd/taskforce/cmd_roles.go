package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/proposal"
	"github.com/spf13/cobra"
)

func newRolesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the task force roles and whether they run by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enabled, err := c.cfg.Roles()
			if err != nil {
				return err
			}
			on := agent.NewRoleSet(enabled...)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSECTION\tDEFAULT")
			for _, r := range agent.Roles() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r, r.DisplayName(), proposal.SectionTitle(r), on.Has(r))
			}
			return tw.Flush()
		},
	}
}

func roleNames(roles []agent.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
