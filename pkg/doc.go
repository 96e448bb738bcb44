// Package pkg provides the libraries behind scryer-layout.
//
// # Overview
//
// scryer-layout positions the boxes of an architecture diagram and picks
// where each connection attaches. The pkg directory is organized as:
//
//  1. [diagram] - Snapshot types (nodes, edges, groups, handles) and JSON I/O
//  2. [layout] - The positioning stages: compound graph, solver adapter,
//     hub normalisation and crossing reduction
//  3. [routing] - Handle assignment for edges
//  4. [pipeline] - Orchestration with caching (solve → normalise → untangle → route)
//  5. [cache], [config], [errors], [observability] - Supporting infrastructure
//
// # Architecture
//
// The data flow of one layout call:
//
//	Diagram snapshot
//	     ↓
//	[layout/compound] groups become parent items, edges are lifted
//	     ↓
//	[layout/solver] external solver (Graphviz fdp) places the compound graph
//	     ↓
//	[layout/compass] hub neighbours snap to compass slots
//	     ↓
//	[layout/crossing] small clusters are permuted to remove crossings
//	     ↓
//	[routing] every edge gets a source and target handle
//
// # Quick Start
//
//	runner := pipeline.NewRunner(fdp.New(), nil, nil, logger)
//	res, err := runner.Layout(ctx, d, pipeline.Options{})
package pkg
