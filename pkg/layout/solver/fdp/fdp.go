// Package fdp implements [solver.Solver] with Graphviz's fdp engine.
//
// The compound graph is written as an undirected DOT graph in which every
// group parent is a cluster, laid out by fdp through go-graphviz, and read
// back from Graphviz's "dot" output format. Graphviz works in points with
// the y axis pointing up and node positions at box centres; the decoder
// converts everything back to top-left, y-down canvas coordinates.
package fdp

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/aklos/scryer-sub000/pkg/diagram"
	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/layout/solver"
)

// pointsPerInch converts canvas units, treated as points, to the inches
// Graphviz expects for node sizes and K.
const pointsPerInch = 72.0

// outputFormat is Graphviz's layout-annotated DOT output.
const outputFormat graphviz.Format = "dot"

// Solver lays out compound graphs with fdp. It holds no Graphviz state
// between calls and is safe for concurrent use.
type Solver struct {
	// Seed fixes fdp's initial placement so identical input produces
	// identical output.
	Seed int
}

// New returns an fdp solver with a fixed seed.
func New() *Solver {
	return &Solver{Seed: 1}
}

var _ solver.Solver = (*Solver)(nil)

// Name identifies the solver in cache keys and logs.
func (s *Solver) Name() string { return "fdp" }

// Solve implements [solver.Solver].
func (s *Solver) Solve(ctx context.Context, req *solver.Request) (*solver.Result, error) {
	doc := Encode(req, s.Seed)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSolverUnavailable, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.FDP)

	g, err := graphviz.ParseBytes([]byte(doc.DOT))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeSolverFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, outputFormat, &buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeSolverFailed, err, "fdp layout")
	}
	return doc.Decode(buf.Bytes())
}

// Document is an encoded request together with the mapping from DOT names
// back to diagram IDs.
type Document struct {
	DOT string

	nodes    map[string]dotNode
	clusters map[string]string
}

type dotNode struct {
	id     string
	parent string
	w, h   float64
}

// Encode writes req as a DOT graph. Node and cluster names are synthetic
// (n0, n1, ... and cluster_g0, ...) so arbitrary diagram IDs never need
// quoting rules.
func Encode(req *solver.Request, seed int) *Document {
	doc := &Document{
		nodes:    make(map[string]dotNode),
		clusters: make(map[string]string),
	}
	names := make(map[string]string)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  graph [layout=fdp, K=%s, sep=\"+%s\", overlap=false, splines=false, start=%d];\n",
		num(req.EdgeLength/pointsPerInch), num(req.NodeSpacing/2), seed)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")

	writeNode := func(indent string, n diagram.Node, parent string) {
		name := "n" + strconv.Itoa(len(doc.nodes))
		w, h := n.Dimensions()
		doc.nodes[name] = dotNode{id: n.ID, parent: parent, w: w, h: h}
		names[n.ID] = name
		fmt.Fprintf(&buf, "%s%s [width=%s, height=%s];\n", indent, name, num(w/pointsPerInch), num(h/pointsPerInch))
	}

	for _, it := range req.Graph.Items {
		if !it.IsGroup() {
			writeNode("  ", it.Node, "")
			continue
		}
		cluster := "cluster_g" + strconv.Itoa(len(doc.clusters))
		doc.clusters[cluster] = it.ID
		names[it.ID] = cluster

		fmt.Fprintf(&buf, "  subgraph %s {\n", cluster)
		for _, c := range it.Children {
			writeNode("    ", c, it.ID)
		}
		for _, e := range it.Edges {
			if e.IsSelfLoop() {
				continue
			}
			fmt.Fprintf(&buf, "    %s -- %s;\n", names[e.Source], names[e.Target])
		}
		buf.WriteString("  }\n")
	}

	for _, e := range req.Graph.Edges {
		fmt.Fprintf(&buf, "  %s -- %s;\n", names[e.Source], names[e.Target])
	}
	buf.WriteString("}\n")

	doc.DOT = buf.String()
	return doc
}

var (
	nodePosRe   = regexp.MustCompile(`(?ms)^\s*(n\d+)\s+\[[^\]]*?pos="([^"]+)"`)
	clusterBBRe = regexp.MustCompile(`subgraph\s+"?(cluster_g\d+)"?\s*\{\s*graph\s*\[[^\]]*?bb="([^"]+)"`)
)

// Decode reads positions out of Graphviz's DOT output.
func (d *Document) Decode(out []byte) (*solver.Result, error) {
	// Graphviz folds long attribute lists with a backslash-newline.
	text := strings.ReplaceAll(string(out), "\\\n", "")

	res := &solver.Result{
		Positions: make(map[string]diagram.Position),
		Children:  make(map[string]map[string]diagram.Position),
	}

	origins := make(map[string]diagram.Position, len(d.clusters))
	for _, m := range clusterBBRe.FindAllStringSubmatch(text, -1) {
		parent, ok := d.clusters[m[1]]
		if !ok {
			continue
		}
		llx, _, _, ury, err := parseBB(m[2])
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSolverFailed, err, "cluster %s", m[1])
		}
		origin := diagram.Position{X: llx, Y: -ury}
		origins[parent] = origin
		res.Positions[parent] = origin
		res.Children[parent] = make(map[string]diagram.Position)
	}

	for _, m := range nodePosRe.FindAllStringSubmatch(text, -1) {
		n, ok := d.nodes[m[1]]
		if !ok {
			continue
		}
		cx, cy, err := parsePoint(m[2])
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeSolverFailed, err, "node %s", m[1])
		}
		topLeft := diagram.Position{X: cx - n.w/2, Y: -cy - n.h/2}
		if n.parent == "" {
			res.Positions[n.id] = topLeft
			continue
		}
		origin, ok := origins[n.parent]
		if !ok {
			return nil, errs.New(errs.ErrCodeSolverFailed, "no bounding box for group %q", n.parent)
		}
		res.Children[n.parent][n.id] = diagram.Position{X: topLeft.X - origin.X, Y: topLeft.Y - origin.Y}
	}
	return res, nil
}

func parsePoint(s string) (x, y float64, err error) {
	parts := strings.Split(strings.TrimSuffix(s, "!"), ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("malformed point %q", s)
	}
	if x, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, err
	}
	if y, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseBB(s string) (llx, lly, urx, ury float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("malformed bounding box %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(p, 64); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return v[0], v[1], v[2], v[3], nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
