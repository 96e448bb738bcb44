package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/pipeline"
)

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		output     string
		configPath string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "route [diagram.json]",
		Short: "Assign connection handles to every edge",
		Long: `Assign connection handles to every edge without moving any node.

Each edge gets one of eight handles (four sides, four corners) on its source
and target boxes. The output maps edge IDs to {sourceHandle, targetHandle}.
Edges whose endpoints are missing are left out. Use -o - to print to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd.Context(), args[0], output, configPath, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.handles.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "tuning file (TOML)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRoute loads the diagram, assigns handles, and writes output.
func (c *CLI) runRoute(ctx context.Context, input, output, configPath string, noCache bool) error {
	d, err := diagram.ReadFile(input)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "load diagram %s", input)
	}
	if err := errs.ValidateDiagram(d); err != nil {
		return err
	}
	tuning, err := loadTuning(configPath)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	p := newProgress(c.Logger)
	handles, err := runner.Route(ctx, d.Nodes, d.Edges, pipeline.Options{Tuning: tuning, Logger: c.Logger})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Routed %d edges", len(handles)))

	if output == "-" {
		data, err := diagram.Marshal(handles)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if output == "" {
		output = defaultOutput(input, ".handles.json")
	}
	if err := diagram.WriteFile(handles, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Routing complete")
	printFile(output)
	if skipped := len(d.Edges) - len(handles); skipped > 0 {
		printWarning("%d edges reference missing nodes and were skipped", skipped)
	}
	return nil
}
