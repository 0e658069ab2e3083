package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gogpu/stroke"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := buildRoot(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with all subcommands writing to out.
func buildRoot(out io.Writer) *cobra.Command {
	globalFlags := &GlobalFlags{}
	app := &command{out: out}

	root := createRootCommand(app, globalFlags)
	root.SetOut(out)

	root.AddCommand(
		createRecordCommand(app, &RecordFlags{}),
		createReplayCommand(app, &ReplayFlags{}),
		createSwapBrushCommand(app, &SwapBrushFlags{}),
		createTranslateCommand(app, &TranslateFlags{}),
		createInspectCommand(app, &InspectFlags{}),
		createDumpCommand(app, &DumpFlags{}),
		createUndoCommand(app, &UndoFlags{}),
		createDeleteCommand(app, &DeleteFlags{}),
		createExportCommand(app, &ArchiveFlags{}),
		createImportCommand(app, &ArchiveFlags{}),
		createPresetsCommand(app),
		createVersionCommand(app),
	)
	return root
}

// createRootCommand creates the root command with persistent flags.
func createRootCommand(app *command, flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "strokectl",
		Short: "Record, store and replay paint strokes",
		Long: `strokectl records pointer input into replayable stroke records,
keeps per-layer stroke histories in a SQLite database and replays them
onto raster or PDF surfaces.

Examples:
  strokectl record --input scribble.csv --layer ink --preset pencil
  strokectl replay --out ink.png
  strokectl swap-brush --layer ink --preset charcoal
  strokectl export --file strokes.msgpack`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.teardown()
		},
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML, YAML or JSON config file (optional)")
	root.PersistentFlags().StringVar(&flags.DB, "db", "", "stroke history database path")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&flags.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the command")

	return root
}

func addCanvasFlags(cmd *cobra.Command, f *CanvasFlags) {
	cmd.Flags().StringVar(&f.Surface, "surface", "", "surface backend (image or pdf)")
	cmd.Flags().IntVar(&f.Width, "width", 0, "canvas width in pixels")
	cmd.Flags().IntVar(&f.Height, "height", 0, "canvas height in pixels")
	cmd.Flags().BoolVar(&f.Transparent, "transparent", false, "leave the canvas background transparent")
}

func mustRequire(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		if err := cmd.MarkFlagRequired(n); err != nil {
			panic(err)
		}
	}
}

// createRecordCommand creates the record subcommand
func createRecordCommand(app *command, f *RecordFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a stroke from a CSV input log",
		Long: `Paint the samples of a CSV input log with a brush preset, record them
as one stroke and append the stroke to a layer. The layer is created if it
does not exist.

Input columns: dtime,x,y,pressure[,xtilt,ytilt]

Examples:
  strokectl record --input scribble.csv --layer ink
  strokectl record --input scribble.csv --layer ink --preset marker --out live.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Record(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Input, "input", "", "CSV input log, - for stdin (required)")
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID (required)")
	cmd.Flags().StringVar(&f.Preset, "preset", "", "brush preset name or .myb path")
	cmd.Flags().StringVar(&f.Out, "out", "", "also write the live rendering to this file")
	addCanvasFlags(cmd, &f.Canvas)
	mustRequire(cmd, "input", "layer")
	return cmd
}

// createReplayCommand creates the replay subcommand
func createReplayCommand(app *command, f *ReplayFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay stored layers onto a surface",
		Long: `Replay layer stroke histories. With --out all selected layers are
composited bottom to top onto one surface. With --split-dir every layer is
replayed concurrently onto its own surface and written as a separate file.

Examples:
  strokectl replay --out all.png
  strokectl replay --layer ink --surface pdf --out ink.pdf
  strokectl replay --split-dir ./layers --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Replay(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringSliceVar(&f.Layers, "layer", nil, "layer names or IDs (default all)")
	cmd.Flags().StringVar(&f.Out, "out", "", "output file for the composited replay")
	cmd.Flags().StringVar(&f.SplitDir, "split-dir", "", "directory for one file per layer")
	cmd.Flags().IntVar(&f.Workers, "workers", 0, "layers replayed at once with --split-dir (0 uses config)")
	addCanvasFlags(cmd, &f.Canvas)
	cmd.MarkFlagsOneRequired("out", "split-dir")
	cmd.MarkFlagsMutuallyExclusive("out", "split-dir")
	return cmd
}

// createSwapBrushCommand creates the swap-brush subcommand
func createSwapBrushCommand(app *command, f *SwapBrushFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap-brush",
		Short: "Replace the brush of recorded strokes",
		Long: `Replace the brush configuration of one stroke, or of every stroke in a
layer, keeping the recorded input.

Examples:
  strokectl swap-brush --layer ink --preset charcoal
  strokectl swap-brush --layer ink --preset pen --index 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.SwapBrush(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID (required)")
	cmd.Flags().StringVar(&f.Preset, "preset", "", "brush preset name or .myb path (required)")
	cmd.Flags().IntVar(&f.Index, "index", -1, "stroke index, -1 for all strokes")
	mustRequire(cmd, "layer", "preset")
	return cmd
}

// createTranslateCommand creates the translate subcommand
func createTranslateCommand(app *command, f *TranslateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Move a layer",
		Long: `Add an offset to a layer. Strokes are shifted when the layer is replayed.

Example:
  strokectl translate --layer ink --dx 20 --dy -5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Translate(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID (required)")
	cmd.Flags().Float64Var(&f.DX, "dx", 0, "horizontal offset in pixels")
	cmd.Flags().Float64Var(&f.DY, "dy", 0, "vertical offset in pixels")
	mustRequire(cmd, "layer")
	return cmd
}

// createInspectCommand creates the inspect subcommand
func createInspectCommand(app *command, f *InspectFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List layers or the strokes of one layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Inspect(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID; lists all layers when empty")
	return cmd
}

// createDumpCommand creates the dump subcommand
func createDumpCommand(app *command, f *DumpFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the samples of a stored stroke as CSV",
		Long: `Write the input samples of one stored stroke in the format record reads.

Example:
  strokectl dump --layer ink --index 0 --out stroke0.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Dump(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID (required)")
	cmd.Flags().IntVar(&f.Index, "index", 0, "stroke index")
	cmd.Flags().StringVar(&f.Out, "out", "", "output file (default stdout)")
	mustRequire(cmd, "layer")
	return cmd
}

// createUndoCommand creates the undo subcommand
func createUndoCommand(app *command, f *UndoFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Remove the last stroke of a layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Undo(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID (required)")
	mustRequire(cmd, "layer")
	return cmd
}

// createDeleteCommand creates the delete-layer subcommand
func createDeleteCommand(app *command, f *DeleteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-layer",
		Short: "Delete a layer and its strokes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.DeleteLayer(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Layer, "layer", "", "layer name or ID (required)")
	mustRequire(cmd, "layer")
	return cmd
}

// createExportCommand creates the export subcommand
func createExportCommand(app *command, f *ArchiveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write layers to a portable stroke archive",
		Long: `Write stored layers and their strokes to a msgpack archive that import
can load into another database.

Examples:
  strokectl export --file strokes.msgpack
  strokectl export --file ink.msgpack --layer ink`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Export(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Path, "file", "", "archive path (required)")
	cmd.Flags().StringSliceVar(&f.Layers, "layer", nil, "layer names or IDs (default all)")
	mustRequire(cmd, "file")
	return cmd
}

// createImportCommand creates the import subcommand
func createImportCommand(app *command, f *ArchiveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load layers from a stroke archive",
		Long: `Load the layers of an archive written by export. Layers with the same ID
are replaced.

Example:
  strokectl import --file strokes.msgpack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Import(cmd.Context(), *f)
		},
	}
	cmd.Flags().StringVar(&f.Path, "file", "", "archive path (required)")
	mustRequire(cmd, "file")
	return cmd
}

// createPresetsCommand creates the presets subcommand
func createPresetsCommand(app *command) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in brush presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Presets()
		},
	}
}

// createVersionCommand creates the version subcommand
func createVersionCommand(app *command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the strokectl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(app.out, "strokectl %s (stroke format %c)\n", version, stroke.FormatVersion)
			return err
		},
	}
}
