package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkcanvas/pkg/config"
)

// layoutCommand creates the layout command for computing a canvas state once.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout [config]",
		Short: "Compute the canvas layout for a configuration file",
		Long: `Compute the canvas layout for a configuration file.

The layout command builds a canvas from the configuration (TOML, YAML or
JSON), waits for the layout engine and writes the composed canvas state as
JSON: positioned nodes with port anchors, routed edges, and the viewport
(zoom, pan, container and canvas sizes).

Results are cached according to the config's "cache" setting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (default: <config>.layout.json, "-" for stdout)`)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runLayout loads the config, waits for the layout, and writes the state.
func (c *CLI) runLayout(ctx context.Context, path, output string, noCache bool) error {
	f, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	s, err := c.openCanvas(ctx, f, f.CanvasConfig(), noCache)
	if err != nil {
		return fmt.Errorf("initialize canvas: %w", err)
	}
	defer s.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	s.canvas.WaitLayout()

	if ctx.Err() != nil {
		spinner.Stop()
		return ctx.Err()
	}

	st := s.canvas.State()
	if st.Viewport.Err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", st.Viewport.Err)
	}
	spinner.Stop()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		output = base + ".layout.json"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	g := f.Graph()
	printSuccess("Layout complete")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), c.hooks.cached())
	if l := st.Layout(); l != nil {
		printKeyValue("size", fmt.Sprintf("%.0f x %.0f pt", l.Width, l.Height))
	}
	printKeyValue("zoom", fmt.Sprintf("%.2f", st.Zoom.Zoom))
	printNewline()
	printNextStep("Explore", appName+" view "+path)

	return nil
}
