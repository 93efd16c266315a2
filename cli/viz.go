// ABOUTME: Visualization CLI commands
// ABOUTME: Generates the conversion funnel graph as DOT source
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/offertrack/tracker"
	"github.com/harperreed/offertrack/viz"
)

// VizFunnelCommand generates the channel to outcome funnel graph.
func VizFunnelCommand(ctx context.Context, tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("viz funnel", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dot, err := viz.GenerateFunnelGraph(ctx, tr.Offers(), tr.Now())
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	fmt.Fprintln(out, dot)
	return nil
}
