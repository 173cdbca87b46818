package lineage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store manages lineage nodes and edges in memory. A single mutating
// operation is atomic with respect to concurrent readers: deleting a node
// removes its edges under the same lock, so no reader can observe a dangling
// edge. Traversals work on a Snapshot and never hold the lock while running.
type Store struct {
	nodes map[string]LineageNode
	edges map[string]LineageEdge
	mu    sync.RWMutex
}

// NewStore creates and returns a new empty Store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]LineageNode),
		edges: make(map[string]LineageEdge),
	}
}

// NodeSpec is the validated input for creating a node.
type NodeSpec struct {
	Name      string
	NodeType  NodeType
	SourceID  string
	Metadata  map[string]interface{}
	PositionX float64
	PositionY float64
}

// EdgeSpec is the validated input for creating an edge.
type EdgeSpec struct {
	SourceNodeID string
	TargetNodeID string
	EdgeType     EdgeType
	Metadata     map[string]interface{}
}

// NodeUpdate carries the fields of a partial node update. Nil fields are
// left untouched.
type NodeUpdate struct {
	Name      *string
	SourceID  *string
	Metadata  map[string]interface{}
	PositionX *float64
	PositionY *float64
}

// PositionUpdate is one entry of a batch layout update.
type PositionUpdate struct {
	NodeID    string  `json:"node_id"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

// CreateNode validates the spec, assigns an ID and timestamps, and stores
// the node.
func (s *Store) CreateNode(spec NodeSpec) (LineageNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.Name == "" {
		return LineageNode{}, &ValidationError{Field: "name", Reason: "cannot be empty"}
	}
	if spec.NodeType == "" {
		return LineageNode{}, &ValidationError{Field: "node_type", Reason: "cannot be empty"}
	}
	if !spec.NodeType.Valid() {
		return LineageNode{}, &ValidationError{Field: "node_type", Reason: "must be one of source, transform, sink"}
	}

	now := time.Now().UTC()
	node := LineageNode{
		ID:        uuid.New().String(),
		Name:      spec.Name,
		NodeType:  spec.NodeType,
		SourceID:  spec.SourceID,
		Metadata:  spec.Metadata,
		PositionX: spec.PositionX,
		PositionY: spec.PositionY,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nodes[node.ID] = node
	return node, nil
}

// GetNode retrieves a node by its ID.
func (s *Store) GetNode(id string) (LineageNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[id]
	if !ok {
		return LineageNode{}, &NotFoundError{Resource: "node", ID: id}
	}
	return node, nil
}

// UpdateNode applies only the provided fields and refreshes updated_at.
// The node ID and node_type are immutable.
func (s *Store) UpdateNode(id string, update NodeUpdate) (LineageNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return LineageNode{}, &NotFoundError{Resource: "node", ID: id}
	}

	if update.Name != nil {
		if *update.Name == "" {
			return LineageNode{}, &ValidationError{Field: "name", Reason: "cannot be empty"}
		}
		node.Name = *update.Name
	}
	if update.SourceID != nil {
		node.SourceID = *update.SourceID
	}
	if update.Metadata != nil {
		node.Metadata = update.Metadata
	}
	if update.PositionX != nil {
		node.PositionX = *update.PositionX
	}
	if update.PositionY != nil {
		node.PositionY = *update.PositionY
	}
	node.UpdatedAt = time.Now().UTC()
	s.nodes[id] = node
	return node, nil
}

// DeleteNode removes a node and every edge referencing it as source or
// target. The cascade happens under the same lock as the node removal.
func (s *Store) DeleteNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return &NotFoundError{Resource: "node", ID: id}
	}

	for edgeID, edge := range s.edges {
		if edge.SourceNodeID == id || edge.TargetNodeID == id {
			delete(s.edges, edgeID)
		}
	}
	delete(s.nodes, id)
	return nil
}

// CreateEdge validates that both endpoints exist and stores the edge.
// Dangling edges are rejected, never silently dropped.
func (s *Store) CreateEdge(spec EdgeSpec) (LineageEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.SourceNodeID == "" {
		return LineageEdge{}, &ValidationError{Field: "source_node_id", Reason: "cannot be empty"}
	}
	if spec.TargetNodeID == "" {
		return LineageEdge{}, &ValidationError{Field: "target_node_id", Reason: "cannot be empty"}
	}
	if spec.EdgeType == "" {
		return LineageEdge{}, &ValidationError{Field: "edge_type", Reason: "cannot be empty"}
	}
	if !spec.EdgeType.Valid() {
		return LineageEdge{}, &ValidationError{Field: "edge_type", Reason: "must be one of derives_from, transforms_to, feeds_into"}
	}
	if _, ok := s.nodes[spec.SourceNodeID]; !ok {
		return LineageEdge{}, &ValidationError{Field: "source_node_id", Reason: "node " + spec.SourceNodeID + " does not exist"}
	}
	if _, ok := s.nodes[spec.TargetNodeID]; !ok {
		return LineageEdge{}, &ValidationError{Field: "target_node_id", Reason: "node " + spec.TargetNodeID + " does not exist"}
	}

	now := time.Now().UTC()
	edge := LineageEdge{
		ID:           uuid.New().String(),
		SourceNodeID: spec.SourceNodeID,
		TargetNodeID: spec.TargetNodeID,
		EdgeType:     spec.EdgeType,
		Metadata:     spec.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.edges[edge.ID] = edge
	return edge, nil
}

// GetEdge retrieves an edge by its ID.
func (s *Store) GetEdge(id string) (LineageEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, ok := s.edges[id]
	if !ok {
		return LineageEdge{}, &NotFoundError{Resource: "edge", ID: id}
	}
	return edge, nil
}

// DeleteEdge removes an edge.
func (s *Store) DeleteEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[id]; !ok {
		return &NotFoundError{Resource: "edge", ID: id}
	}
	delete(s.edges, id)
	return nil
}

// Graph returns the full graph, nodes and edges sorted by creation time then
// ID for deterministic output.
func (s *Store) Graph() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Graph{Nodes: s.sortedNodes(), Edges: s.sortedEdges()}
}

// SourceGraph returns the subgraph induced by the node linked to the given
// external source ID and its one-hop neighborhood.
func (s *Store) SourceGraph(sourceID string) (Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var root *LineageNode
	for _, node := range s.nodes {
		if node.SourceID == sourceID {
			n := node
			root = &n
			break
		}
	}
	if root == nil {
		return Graph{}, &NotFoundError{Resource: "source", ID: sourceID}
	}

	include := map[string]bool{root.ID: true}
	var edges []LineageEdge
	for _, edge := range s.edges {
		if edge.SourceNodeID == root.ID || edge.TargetNodeID == root.ID {
			include[edge.SourceNodeID] = true
			include[edge.TargetNodeID] = true
			edges = append(edges, edge)
		}
	}

	var nodes []LineageNode
	for id := range include {
		nodes = append(nodes, s.nodes[id])
	}
	sortNodes(nodes)
	sortEdges(edges)
	return Graph{Nodes: nodes, Edges: edges}, nil
}

// BatchUpdatePositions applies layout updates, silently skipping unknown
// node IDs, and returns the number of nodes actually updated. Partial
// success never fails the batch.
func (s *Store) BatchUpdatePositions(updates []PositionUpdate) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	now := time.Now().UTC()
	for _, u := range updates {
		node, ok := s.nodes[u.NodeID]
		if !ok {
			continue
		}
		node.PositionX = u.PositionX
		node.PositionY = u.PositionY
		node.UpdatedAt = now
		s.nodes[u.NodeID] = node
		updated++
	}
	return updated
}

// Snapshot returns a consistent copy of the graph for traversal. Analyses
// run on the copy so they neither block writers nor observe mid-operation
// state.
func (s *Store) Snapshot() Graph {
	return s.Graph()
}

func (s *Store) sortedNodes() []LineageNode {
	nodes := make([]LineageNode, 0, len(s.nodes))
	for _, node := range s.nodes {
		nodes = append(nodes, node)
	}
	sortNodes(nodes)
	return nodes
}

func (s *Store) sortedEdges() []LineageEdge {
	edges := make([]LineageEdge, 0, len(s.edges))
	for _, edge := range s.edges {
		edges = append(edges, edge)
	}
	sortEdges(edges)
	return edges
}

func sortNodes(nodes []LineageNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func sortEdges(edges []LineageEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}
		return edges[i].ID < edges[j].ID
	})
}
