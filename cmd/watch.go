package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/xslate/internal/engine"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Recompile stylesheets as they change",
	Long: `Watch the configured paths and recompile every stylesheet that changes,
reporting setup errors as soon as a file is saved. With --out-dir each
stylesheet that compiles is also rendered into that directory.

Examples:
  xslate watch                      # Watch all configured paths
  xslate watch --verbose            # Report every compiled file
  xslate watch --out-dir build      # Render results into build/`,
	RunE: runWatch,
}

var (
	watchFlags  *StandardFlags
	watchOutDir string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags = AddStandardFlags(watchCmd, "output", "run")
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "Render compiled stylesheets into this directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := watchFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if watchOutDir != "" {
		if err := validateArgument(watchOutDir); err != nil {
			return fmt.Errorf("invalid output directory: %w", err)
		}
		if err := os.MkdirAll(watchOutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := engineOptions(cfg, watchFlags, logger)
	if err != nil {
		return err
	}

	fileWatcher, err := watcher.FromConfig(cfg.Watch, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	out := cmd.OutOrStdout()
	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		return recompile(ctx, out, events, opts, watchOutDir, watchFlags.Verbose)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	if !watchFlags.Quiet {
		for _, dir := range fileWatcher.WatchList() {
			fmt.Fprintf(out, "   - Watching: %s\n", dir)
		}
		fmt.Fprintln(out, "👀 Watching for changes... (Press Ctrl+C to stop)")
	}

	<-ctx.Done()
	if !watchFlags.Quiet {
		fmt.Fprintln(out, "\n🛑 Stopping file watcher...")
	}
	return nil
}

// recompile compiles every stylesheet in a batch and reports the outcome.
// It fails when any stylesheet in the batch is invalid.
func recompile(ctx context.Context, w io.Writer, events []watcher.ChangeEvent, opts []engine.Option, outDir string, verbose bool) error {
	failed := 0
	for _, event := range events {
		if event.Type == watcher.EventTypeDeleted || event.Type == watcher.EventTypeRenamed {
			if verbose {
				fmt.Fprintf(w, "🗑  %s %s\n", event.Path, event.Type)
			}
			continue
		}

		stylesheet, err := engine.CompileFile(event.Path, opts...)
		if err != nil {
			failed++
			fmt.Fprintf(w, "❌ %s\n    %v\n", event.Path, err)
			continue
		}

		if outDir != "" {
			target := filepath.Join(outDir, resultName(event.Path, stylesheet.Output().Method))
			if err := renderFile(ctx, stylesheet, target); err != nil {
				failed++
				fmt.Fprintf(w, "❌ %s\n    %v\n", event.Path, err)
				continue
			}
			fmt.Fprintf(w, "✅ %s -> %s\n", event.Path, target)
			continue
		}

		if verbose {
			fmt.Fprintf(w, "✅ %s\n", event.Path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d stylesheets failed", failed, len(events))
	}
	return nil
}

// resultName derives the output file name from the stylesheet name.
func resultName(path string, method output.Method) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch method {
	case output.MethodHTML:
		return base + ".html"
	case output.MethodText:
		return base + ".txt"
	default:
		return base + ".xml"
	}
}

func renderFile(ctx context.Context, stylesheet *engine.Stylesheet, target string) error {
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if err := stylesheet.Render(ctx, file); err != nil {
		file.Close()
		os.Remove(target)
		return err
	}
	return file.Close()
}
