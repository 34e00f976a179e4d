package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/xslate/internal/engine"
)

var transformCmd = &cobra.Command{
	Use:     "transform <stylesheet>",
	Aliases: []string{"t"},
	Short:   "Compile a stylesheet and render its output",
	Long: `Compile a stylesheet and run its entry template, serializing the result
with the method declared by xsl:output unless overridden.

Examples:
  xslate transform page.xsl                   # Render to stdout
  xslate transform page.xsl -o page.html      # Render to a file
  xslate transform page.xsl --method text     # Override the output method
  xslate transform page.xsl --sanitize        # Sanitize unescaped text`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

var (
	transformFlags  *StandardFlags
	transformOutput string
)

func init() {
	rootCmd.AddCommand(transformCmd)

	transformFlags = AddStandardFlags(transformCmd, "run")
	transformCmd.Flags().StringVarP(&transformOutput, "output", "o", "", "Write the result to a file instead of stdout")
}

func runTransform(cmd *cobra.Command, args []string) error {
	if err := validateArguments(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := engineOptions(cfg, transformFlags, logger)
	if err != nil {
		return err
	}

	stylesheet, err := engine.CompileFile(args[0], opts...)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", args[0], err)
	}

	if transformOutput == "" {
		return renderTo(cmd, stylesheet, cmd.OutOrStdout())
	}

	if err := validateArgument(transformOutput); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	file, err := os.Create(transformOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := renderTo(cmd, stylesheet, file); err != nil {
		file.Close()
		os.Remove(transformOutput)
		return err
	}
	return file.Close()
}

func renderTo(cmd *cobra.Command, stylesheet *engine.Stylesheet, w io.Writer) error {
	buffered := bufio.NewWriter(w)
	if err := stylesheet.Render(cmd.Context(), buffered); err != nil {
		return fmt.Errorf("failed to transform %s: %w", stylesheet.File(), err)
	}
	return buffered.Flush()
}
