package lineage

import "sort"

// adjacency is an adjacency-map view over a graph snapshot. Children follow
// edges source -> target (downstream); parents follow target -> source
// (upstream). Neighbor lists are sorted so traversal order is deterministic.
type adjacency struct {
	nodes    map[string]LineageNode
	children map[string][]string
	parents  map[string][]string
	outEdges map[string][]LineageEdge
}

func buildAdjacency(g Graph) *adjacency {
	a := &adjacency{
		nodes:    make(map[string]LineageNode, len(g.Nodes)),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		outEdges: make(map[string][]LineageEdge),
	}
	for _, node := range g.Nodes {
		a.nodes[node.ID] = node
	}
	for _, edge := range g.Edges {
		a.children[edge.SourceNodeID] = append(a.children[edge.SourceNodeID], edge.TargetNodeID)
		a.parents[edge.TargetNodeID] = append(a.parents[edge.TargetNodeID], edge.SourceNodeID)
		a.outEdges[edge.SourceNodeID] = append(a.outEdges[edge.SourceNodeID], edge)
	}
	for id := range a.children {
		sort.Strings(a.children[id])
	}
	for id := range a.parents {
		sort.Strings(a.parents[id])
	}
	for id := range a.outEdges {
		edges := a.outEdges[id]
		sort.Slice(edges, func(i, j int) bool { return edges[i].TargetNodeID < edges[j].TargetNodeID })
	}
	return a
}

func (a *adjacency) neighbors(id string, dir Direction) []string {
	if dir == DirectionUpstream {
		return a.parents[id]
	}
	return a.children[id]
}

// reachable walks breadth-first from root in the given direction. The
// visited set keeps the walk finite on cyclic graphs; the root itself is
// never part of the result, and no node appears twice.
func (a *adjacency) reachable(root string, dir Direction) []LineageNode {
	visited := map[string]bool{root: true}
	queue := append([]string(nil), a.neighbors(root, dir)...)
	var result []LineageNode

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		if node, ok := a.nodes[id]; ok {
			result = append(result, node)
		}
		queue = append(queue, a.neighbors(id, dir)...)
	}
	return result
}

// ComputeImpact returns the full upstream and downstream reachable sets for
// the given node. Direction limits which side is computed; DirectionBoth (or
// empty) computes both.
func ComputeImpact(g Graph, nodeID string, dir Direction) (ImpactResult, error) {
	adj := buildAdjacency(g)
	if _, ok := adj.nodes[nodeID]; !ok {
		return ImpactResult{}, &NotFoundError{Resource: "node", ID: nodeID}
	}

	result := ImpactResult{Upstream: []LineageNode{}, Downstream: []LineageNode{}}
	if dir == DirectionUpstream || dir == DirectionBoth || dir == "" {
		result.Upstream = adj.reachable(nodeID, DirectionUpstream)
	}
	if dir == DirectionDownstream || dir == DirectionBoth || dir == "" {
		result.Downstream = adj.reachable(nodeID, DirectionDownstream)
	}
	return result, nil
}
