package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/dataset"
	"github.com/nidhogg/taskforce/internal/notify"
	"github.com/nidhogg/taskforce/internal/orchestrator"
	"github.com/nidhogg/taskforce/internal/proposal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	location        string
	roles           []string
	csvPath         string
	demo            bool
	jsonOut         bool
	notify          bool
	newsTopic       string
	innovationTopic string
}

func newRunCmd(c *cli) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the task force once and print the proposal",
		Long: `Runs the selected roles for a location and prints the composed proposal
as Markdown, or as JSON with --json. Without --csv the data analyst uses the
built-in demo series when demo_fallback is enabled.`,
		Example: `  taskforce run --location Lahore
  taskforce run --location Springfield --roles data,news --csv readings.csv
  taskforce run --roles "" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, &f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.location, "location", "l", "", "city to analyze (default from config)")
	fl.StringSliceVarP(&f.roles, "roles", "r", nil, "roles to run, comma separated (default from config)")
	fl.StringVar(&f.csvPath, "csv", "", "air-quality CSV with date,pm25,pm10,no2,city columns")
	fl.BoolVar(&f.demo, "demo", false, "use the built-in demo dataset")
	fl.BoolVar(&f.jsonOut, "json", false, "print the proposal as JSON")
	fl.BoolVar(&f.notify, "notify", false, "send the proposal to the configured chat webhooks")
	fl.StringVar(&f.newsTopic, "news-topic", "", "override the news analyst topic")
	fl.StringVar(&f.innovationTopic, "innovation-topic", "", "override the innovations scout topic")
	cmd.MarkFlagsMutuallyExclusive("csv", "demo")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	roles := a.orch.DefaultRoles()
	if cmd.Flags().Changed("roles") {
		if roles, err = agent.ParseRoles(f.roles); err != nil {
			return err
		}
	}

	var ds *dataset.Dataset
	switch {
	case f.csvPath != "":
		file, err := os.Open(f.csvPath)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer file.Close()
		if ds, err = dataset.ReadCSV(file); err != nil {
			return fmt.Errorf("%s: %w", f.csvPath, err)
		}
	case f.demo:
		ds = dataset.Demo(f.location)
	}

	p := a.orch.Run(ctx, orchestrator.TeamRequest{
		Location:        f.location,
		Dataset:         ds,
		Roles:           roles,
		NewsTopic:       f.newsTopic,
		InnovationTopic: f.innovationTopic,
	})

	if f.notify {
		if !a.broadcaster.Enabled() {
			c.logger.Warn("--notify set but no webhooks are configured")
		} else if _, err := a.broadcaster.Send(ctx, notify.FromProposal(p)); err != nil {
			c.logger.Warn("proposal notification failed", zap.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	md := proposal.Markdown(p)
	if f.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"proposal": p, "markdown": md})
	}
	_, err = fmt.Fprintln(out, strings.TrimRight(md, "\n"))
	return err
}
