package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/pipeline"
)

// layoutFlags holds the flags of the layout command.
type layoutFlags struct {
	output     string
	mode       string
	configPath string
	noCache    bool
	refresh    bool
	timeout    time.Duration
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Position the nodes of a diagram and route its edges",
		Long: `Position the nodes of a diagram and route its edges.

The layout command reads a diagram snapshot (nodes, edges and groups) and
writes a result file with every node's new position, a connection handle pair
for every edge and the statistics of each stage.

In full mode (default) the diagram is solved with Graphviz fdp. In tidy mode
the solver is skipped: nodes keep their positions, unplaced nodes at (0,0) are
put on a grid, and only hub normalisation, crossing reduction and routing run.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&f.mode, "mode", pipeline.DefaultMode, "layout mode: full (default), tidy")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "tuning file (TOML)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "solver timeout (overrides the tuning file)")

	return cmd
}

// runLayout loads the diagram, runs the pipeline, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, f layoutFlags) error {
	d, err := diagram.ReadFile(input)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "load diagram %s", input)
	}
	if err := errs.ValidateDiagram(d); err != nil {
		return err
	}

	tuning, err := loadTuning(f.configPath)
	if err != nil {
		return err
	}
	if f.timeout > 0 {
		tuning.Solver.Timeout.Duration = f.timeout
	}

	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Mode:    f.mode,
		Tuning:  tuning,
		Refresh: f.refresh,
		Logger:  c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", f.mode))
	spinner.Start()

	res, err := runner.Layout(ctx, d, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := f.output
	if outputPath == "" {
		outputPath = defaultOutput(input, ".layout.json")
	}
	if err := diagram.WriteFile(res, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheHit)
	if res.Stats.CrossingsBefore > 0 {
		printDetail("Crossings: %d → %d", res.Stats.CrossingsBefore, res.Stats.CrossingsAfter)
	}
	printNewline()
	printNextStep("Inspect", appName+" inspect "+outputPath)

	return nil
}

// defaultOutput derives an output path from the input path.
func defaultOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
