package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/xslate/internal/engine"
	xerrors "github.com/conneroisu/xslate/internal/errors"
	"github.com/conneroisu/xslate/internal/watcher"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:     "validate [path...]",
	Aliases: []string{"v"},
	Short:   "Compile stylesheets and report setup errors",
	Long: `Compile stylesheets without running them and report every content model,
attribute and template error with its location.

Paths may be files or directories. Directories are searched for files with
the configured watch extensions. Without arguments the configured watch
paths are used.

Examples:
  xslate validate                     # Validate all stylesheets
  xslate validate styles/page.xsl     # Validate one file
  xslate validate --format json       # Output results as JSON`,
	RunE: runValidateCommand,
}

var validateFlags *StandardFlags

func init() {
	rootCmd.AddCommand(validateCmd)

	validateFlags = AddStandardFlags(validateCmd, "output").WithFormats(validateCmd, "text", "json")
}

type ValidationResult struct {
	File        string               `json:"file"`
	Valid       bool                 `json:"valid"`
	Diagnostics []xerrors.Diagnostic `json:"diagnostics,omitempty"`
}

type ValidationSummary struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
	Results []ValidationResult `json:"results"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	if err := validateFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateArguments(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots = cfg.Watch.Paths
	}
	files, err := findStylesheets(roots, watcher.ExtensionFilter(cfg.Watch.Extensions...))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stylesheets found to validate")
		return nil
	}

	collector := xerrors.NewCollector()
	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		file := file
		g.Go(func() error {
			_, err := engine.CompileFile(file, engine.WithLogger(logger))
			collector.AddError(file, err)
			return nil
		})
	}
	_ = g.Wait()

	summary := summarize(files, collector)
	out := cmd.OutOrStdout()
	switch validateFlags.Format {
	case "json":
		if err := outputValidationJSON(out, summary); err != nil {
			return err
		}
	default:
		outputValidationText(out, summary, validateFlags.Quiet)
	}

	if summary.Invalid > 0 {
		return fmt.Errorf("validation failed: %d invalid stylesheets", summary.Invalid)
	}
	return nil
}

// findStylesheets expands roots into a sorted list of stylesheet files.
// Files named explicitly are kept whatever their extension.
func findStylesheets(roots []string, accept watcher.FileFilter) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if accept(path) && watcher.NoHiddenFilter(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func summarize(files []string, collector *xerrors.Collector) ValidationSummary {
	summary := ValidationSummary{
		Total:   len(files),
		Results: make([]ValidationResult, 0, len(files)),
	}
	for _, file := range files {
		diags := collector.ByFile(file)
		result := ValidationResult{File: file, Valid: len(diags) == 0, Diagnostics: diags}
		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

func outputValidationText(w io.Writer, summary ValidationSummary, quiet bool) {
	if !quiet {
		fmt.Fprintf(w, "Validation Summary:\n")
		fmt.Fprintf(w, "  Total stylesheets: %d\n", summary.Total)
		fmt.Fprintf(w, "  Valid: %d\n", summary.Valid)
		fmt.Fprintf(w, "  Invalid: %d\n", summary.Invalid)
		fmt.Fprintln(w)
	}

	for _, result := range summary.Results {
		if result.Valid {
			if !quiet {
				fmt.Fprintf(w, "✅ %s\n", result.File)
			}
			continue
		}

		fmt.Fprintf(w, "❌ %s\n", result.File)
		for _, d := range result.Diagnostics {
			fmt.Fprintf(w, "    %s\n", d.Error())
		}
	}

	if summary.Invalid == 0 && !quiet {
		fmt.Fprintln(w, "✅ All stylesheets are valid!")
	}
}

func outputValidationJSON(w io.Writer, summary ValidationSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(summary)
}
