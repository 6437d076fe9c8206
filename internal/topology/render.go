package topology

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DetailedDOT renders the topology with room types, rotations and door labels.
// The start room is drawn filled and the boss room doubled.
func (r *Result) DetailedDOT() string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, fontsize=12];\n")
	buf.WriteString("\n")

	for i, a := range r.RoomTypes {
		attrs := []string{fmt.Sprintf("label=\"%d\\n%s r%d\"", i, a, r.Rotations[i])}
		if i == r.StartRoom {
			attrs = append(attrs, "style=filled", "fillcolor=\"#a6e3a1\"")
		}
		if r.BossRoom != nil && i == *r.BossRoom {
			attrs = append(attrs, "shape=doublecircle", "color=\"#f38ba8\"")
		}
		fmt.Fprintf(&buf, "  %d [%s];\n", i, strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")

	for i, e := range r.Edges {
		d := r.Doors[i]
		fmt.Fprintf(&buf, "  %d -- %d [taillabel=\"%s\", headlabel=\"%s\"];\n",
			e.Source, e.Destination, d.Source, d.Destination)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// ParseFormat maps "svg" or "png" to a graphviz output format.
func ParseFormat(s string) (graphviz.Format, error) {
	switch strings.ToLower(s) {
	case "", "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	}
	return "", fmt.Errorf("unsupported render format %q", s)
}

// Render lays out dot with Graphviz and returns it in the given format.
func Render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSVG renders dot to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, graphviz.SVG)
}
