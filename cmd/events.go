package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/xslate/internal/engine"
	"github.com/conneroisu/xslate/internal/output"
)

var eventsCmd = &cobra.Command{
	Use:   "events <stylesheet>",
	Short: "Print the output events of a run",
	Long: `Run a stylesheet against a recording output context and print every
write it made, in order, without serializing them.

This shows exactly which text was escaped and which was written verbatim.

Examples:
  xslate events page.xsl                  # One event per line
  xslate events page.xsl -f json          # Output as JSON
  xslate events page.xsl -f yaml          # Output as YAML`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

var eventsFlags *StandardFlags

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsFlags = AddStandardFlags(eventsCmd, "output", "run").WithFormats(eventsCmd, "text", "json", "yaml")
}

func runEvents(cmd *cobra.Command, args []string) error {
	if err := eventsFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateArguments(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := engineOptions(cfg, eventsFlags, logger)
	if err != nil {
		return err
	}

	stylesheet, err := engine.CompileFile(args[0], opts...)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", args[0], err)
	}
	events, err := stylesheet.Events(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	switch eventsFlags.Format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(events)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(events)
	default:
		return outputEventsText(out, events)
	}
}

func outputEventsText(w io.Writer, events []output.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, e := range events {
		switch e.Kind {
		case output.EventText:
			mode := "escaped"
			if !e.Escape {
				mode = "raw"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Kind, mode, strconv.Quote(e.Value))
		case output.EventAttribute:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Kind, e.Name, strconv.Quote(e.Value))
		case output.EventComment:
			fmt.Fprintf(tw, "%s\t\t%s\n", e.Kind, strconv.Quote(e.Value))
		default:
			fmt.Fprintf(tw, "%s\t%s\t\n", e.Kind, e.Name)
		}
	}

	return tw.Flush()
}
