package fdp

import (
	"strings"
	"testing"

	"github.com/aklos/scryer-sub000/pkg/diagram"
	"github.com/aklos/scryer-sub000/pkg/layout/compound"
	"github.com/aklos/scryer-sub000/pkg/layout/solver"
)

func testRequest() *solver.Request {
	nodes := []diagram.Node{
		{ID: "api gateway"},
		{ID: "db", Size: &diagram.Size{Width: 144, Height: 72}},
		{ID: "worker"},
	}
	edges := []diagram.Edge{
		{ID: "e1", Source: "api gateway", Target: "db"},
		{ID: "e2", Source: "db", Target: "worker"},
		{ID: "e3", Source: "api gateway", Target: "worker"},
	}
	groups := []diagram.Group{{ID: "backend", MemberIDs: []string{"db", "worker"}}}
	return &solver.Request{
		Graph:       compound.Build(nodes, edges, groups),
		EdgeLength:  144,
		NodeSpacing: 40,
	}
}

func TestEncode(t *testing.T) {
	doc := Encode(testRequest(), 7)

	for _, want := range []string{
		"graph G {",
		"K=2.0000",
		`sep="+20.0000"`,
		"start=7",
		"n0 [width=2.5000, height=2.2222];",
		"subgraph cluster_g0 {",
		"n1 [width=2.0000, height=1.0000];",
		"n1 -- n2;",
		"n0 -- cluster_g0;",
	} {
		if !strings.Contains(doc.DOT, want) {
			t.Errorf("DOT missing %q:\n%s", want, doc.DOT)
		}
	}
	if strings.Contains(doc.DOT, "api gateway") {
		t.Error("DOT should use synthetic names, not diagram IDs")
	}
	// The lifted edge from the second intra edge collapses into one.
	if got := strings.Count(doc.DOT, "n0 -- cluster_g0;"); got != 1 {
		t.Errorf("lifted edge written %d times, want 1", got)
	}
}

// Trimmed Graphviz output for the request above, as fdp would produce it.
const sampleOutput = `graph G {
	graph [K=2.0,
		bb="0,0,400,300",
		layout=fdp,
		overlap=false
	];
	node [fixedsize=true,
		label="",
		shape=box
	];
	subgraph cluster_g0 {
		graph [bb="150,20,400,300"];
		n1	[height=1.0,
			pos="250,264",
			width=2.0];
		n2	[height=2.2222,
			pos="300,\
110",
			width=2.5];
		n1 -- n2	[pos="250,228 290,190"];
	}
	n0	[height=2.2222,
		pos="90,150",
		width=2.5];
	n0 -- cluster_g0;
}
`

func TestDecode(t *testing.T) {
	doc := Encode(testRequest(), 1)
	res, err := doc.Decode([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// Centre (90,150), box 180x160, y flipped.
	if got, want := res.Positions["api gateway"], (diagram.Position{X: 0, Y: -230}); got != want {
		t.Errorf("api gateway = %+v, want %+v", got, want)
	}
	// Cluster top-left is (llx, -ury).
	if got, want := res.Positions["backend"], (diagram.Position{X: 150, Y: -300}); got != want {
		t.Errorf("backend = %+v, want %+v", got, want)
	}

	children := res.Children["backend"]
	// db: centre (250,264), box 144x72 -> top-left (178,-300) -> relative (28,0).
	if got, want := children["db"], (diagram.Position{X: 28, Y: 0}); got != want {
		t.Errorf("db = %+v, want %+v", got, want)
	}
	// worker: centre (300,110), box 180x160 -> top-left (210,-190) -> relative (60,110).
	if got, want := children["worker"], (diagram.Position{X: 60, Y: 110}); got != want {
		t.Errorf("worker = %+v, want %+v", got, want)
	}
}

func TestDecodeMissingCluster(t *testing.T) {
	doc := Encode(testRequest(), 1)
	out := `graph G {
	n1 [pos="10,10"];
}`
	if _, err := doc.Decode([]byte(out)); err == nil {
		t.Error("expected error for a child without a cluster bounding box")
	}
}

func TestDecodeMalformedPoint(t *testing.T) {
	doc := Encode(testRequest(), 1)
	out := `graph G {
	n0 [pos="abc"];
}`
	if _, err := doc.Decode([]byte(out)); err == nil {
		t.Error("expected error for a malformed pos attribute")
	}
}

func TestParsePointPinned(t *testing.T) {
	x, y, err := parsePoint("12.5,-3!")
	if err != nil || x != 12.5 || y != -3 {
		t.Errorf("parsePoint = (%v, %v, %v)", x, y, err)
	}
}
