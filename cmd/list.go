package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/xslate/internal/instruction"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the registered instructions",
	Long: `List every instruction kind the compiler knows, with its content model
and optionally its attribute declarations.

Examples:
  xslate list                    # List instructions in table format
  xslate list -f json            # Output as JSON
  xslate list -a                 # Include attribute declarations
  xslate list -a -f yaml         # Include attributes, output as YAML`,
	RunE: runList,
}

var (
	listFlags     *StandardFlags
	listWithAttrs bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output").WithFormats(listCmd, "table", "json", "yaml")

	listCmd.Flags().
		BoolVarP(&listWithAttrs, "with-attrs", "a", false, "Include attribute declarations")
}

// InstructionInfo describes one registered instruction kind.
type InstructionInfo struct {
	Name          string            `json:"name" yaml:"name"`
	Title         string            `json:"title" yaml:"title"`
	Model         string            `json:"content_model" yaml:"content_model"`
	TopLevel      bool              `json:"top_level" yaml:"top_level"`
	PreserveSpace bool              `json:"preserve_space" yaml:"preserve_space"`
	Attributes    map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	if err := listFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	infos := describeInstructions(instruction.Default(), listWithAttrs)

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFlags.Format) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(infos)
	default:
		return outputTable(out, infos)
	}
}

func describeInstructions(registry *instruction.Registry, withAttrs bool) []InstructionInfo {
	title := cases.Title(language.English)

	defs := registry.List()
	infos := make([]InstructionInfo, 0, len(defs))
	for _, def := range defs {
		local := def.Name[strings.IndexByte(def.Name, ':')+1:]
		info := InstructionInfo{
			Name:          def.Name,
			Title:         title.String(strings.ReplaceAll(local, "-", " ")),
			Model:         def.Model.String(),
			TopLevel:      def.TopLevel,
			PreserveSpace: def.PreserveSpace,
		}
		if withAttrs && len(def.Attrs) > 0 {
			info.Attributes = make(map[string]string, len(def.Attrs))
			for name, t := range def.Attrs {
				info.Attributes[name] = t.String()
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func outputTable(w io.Writer, infos []InstructionInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "NAME\tTITLE\tCONTENT MODEL"
	if listWithAttrs {
		header += "\tATTRIBUTES"
	}
	fmt.Fprintln(tw, header)

	for _, info := range infos {
		row := fmt.Sprintf("%s\t%s\t%s", info.Name, info.Title, info.Model)
		if listWithAttrs {
			row += "\t" + formatAttributes(info.Attributes)
		}
		fmt.Fprintln(tw, row)
	}

	fmt.Fprintf(tw, "\nTotal: %d instructions\n", len(infos))
	return tw.Flush()
}

func formatAttributes(attrs map[string]string) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, attrs[name])
	}
	return strings.Join(parts, "; ")
}
