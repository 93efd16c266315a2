// ABOUTME: Graphviz conversion funnel from channel to offer type to outcome
// ABOUTME: Edge labels carry offer counts; output is DOT text
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
)

type funnelKey struct{ from, to string }

// GenerateFunnelGraph renders channel → offer type → outcome, where the
// outcome applies the implicit non-conversion rule as of now.
func GenerateFunnelGraph(ctx context.Context, offers []models.Offer, now time.Time) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel("Offer Conversion Funnel")
	graph.SetRankDir(cgraph.LRRank)

	edges := make(map[funnelKey]int)
	nodes := make(map[string]*cgraph.Node)

	node := func(id, label, shape, color string) (*cgraph.Node, error) {
		if n, ok := nodes[id]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName(id)
		if err != nil {
			return nil, fmt.Errorf("failed to create node %s: %w", id, err)
		}
		n.SetLabel(label)
		n.SetShape(cgraph.Shape(shape))
		n.SetStyle("filled")
		n.SetFillColor(color)
		nodes[id] = n
		return n, nil
	}

	for _, o := range offers {
		channel := "channel_" + o.Channel
		offerType := "type_" + o.OfferType
		outcome := "outcome_" + outcomeLabel(metrics.ConversionStatusAt(o, now))

		if _, err := node(channel, o.Channel, "box", "lightblue"); err != nil {
			return "", err
		}
		if _, err := node(offerType, o.OfferType, "ellipse", "lightyellow"); err != nil {
			return "", err
		}
		edges[funnelKey{channel, offerType}]++
		edges[funnelKey{offerType, outcome}]++
	}

	for _, outcome := range []struct{ id, label, color string }{
		{"outcome_converted", "Converted", "lightgreen"},
		{"outcome_not_converted", "Not converted", "lightpink"},
		{"outcome_pending", "Pending", "lightgrey"},
	} {
		if _, err := node(outcome.id, outcome.label, "diamond", outcome.color); err != nil {
			return "", err
		}
	}

	keys := make([]funnelKey, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})

	for _, k := range keys {
		edge, err := graph.CreateEdgeByName(k.from+"->"+k.to, nodes[k.from], nodes[k.to])
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%d", edges[k]))
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func outcomeLabel(s metrics.ConversionState) string {
	switch s {
	case metrics.ConversionConverted:
		return "converted"
	case metrics.ConversionNotConverted:
		return "not_converted"
	default:
		return "pending"
	}
}
