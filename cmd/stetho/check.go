package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/narrative"
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report collaborator configuration and reachability",
	Long: `Print the resolved collaborator settings and send the narrative agent a
short prompt. A run still completes when collaborators are down; affected report
sections are marked degraded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runCheck(ctx, cmd.OutOrStdout())
	},
}

func runCheck(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	gen := narrative.New(&cfg.Agent, &cfg.Narrative, logger)
	reachable := gen.Available(ctx)

	classify := classifier.New(&cfg.Classifier, logger)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "narrative\t%s via %s @ %s\t%s\n", gen.Model(), cfg.Agent.Provider.Name, cfg.Agent.Provider.BaseURL, status(reachable, "reachable", "unreachable"))
	fmt.Fprintf(tw, "literature\t%s\tcache ttl %s\n", strings.Join(cfg.Literature.Sources, ", "), cfg.Literature.CacheTTLDuration().Round(time.Second))
	fmt.Fprintf(tw, "classifier\t%s\t%s\n", cfg.Classifier.BaseURL, status(classify.Enabled(), "configured", "not configured"))
	fmt.Fprintf(tw, "cache\t%s\t%s\n", cfg.Cache.Addr, status(cfg.Cache.Enabled(), "enabled", "disabled"))
	fmt.Fprintf(tw, "reference\t%s\t\n", referenceSource(cfg.Triage.ReferencePath))
	return tw.Flush()
}

func status(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func referenceSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
