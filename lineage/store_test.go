package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreateNode(t *testing.T, store *Store, name string, nodeType NodeType, sourceID string) LineageNode {
	t.Helper()
	node, err := store.CreateNode(NodeSpec{Name: name, NodeType: nodeType, SourceID: sourceID})
	require.NoError(t, err)
	require.NotEmpty(t, node.ID)
	return node
}

func mustCreateEdge(t *testing.T, store *Store, sourceID, targetID string, edgeType EdgeType) LineageEdge {
	t.Helper()
	edge, err := store.CreateEdge(EdgeSpec{SourceNodeID: sourceID, TargetNodeID: targetID, EdgeType: edgeType})
	require.NoError(t, err)
	require.NotEmpty(t, edge.ID)
	return edge
}

func TestCreateNode(t *testing.T) {
	store := NewStore()

	t.Run("Success", func(t *testing.T) {
		node, err := store.CreateNode(NodeSpec{Name: "raw_events", NodeType: NodeTypeSource, SourceID: "src-1"})
		require.NoError(t, err)
		assert.Equal(t, "raw_events", node.Name)
		assert.Equal(t, NodeTypeSource, node.NodeType)
		assert.Equal(t, "src-1", node.SourceID)
		assert.False(t, node.CreatedAt.IsZero())
		assert.Equal(t, node.CreatedAt, node.UpdatedAt)
	})

	t.Run("MissingName", func(t *testing.T) {
		_, err := store.CreateNode(NodeSpec{NodeType: NodeTypeSource})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "name", validation.Field)
	})

	t.Run("MissingNodeType", func(t *testing.T) {
		_, err := store.CreateNode(NodeSpec{Name: "raw_events"})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "node_type", validation.Field)
	})

	t.Run("UnknownNodeType", func(t *testing.T) {
		_, err := store.CreateNode(NodeSpec{Name: "raw_events", NodeType: "pipeline"})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
	})
}

func TestGetNode(t *testing.T) {
	store := NewStore()
	created := mustCreateNode(t, store, "raw_events", NodeTypeSource, "")

	node, err := store.GetNode(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, node.ID)

	_, err = store.GetNode("missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUpdateNode(t *testing.T) {
	store := NewStore()
	created := mustCreateNode(t, store, "raw_events", NodeTypeSource, "src-1")

	t.Run("PartialUpdateKeepsOtherFields", func(t *testing.T) {
		name := "raw_events_v2"
		node, err := store.UpdateNode(created.ID, NodeUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "raw_events_v2", node.Name)
		assert.Equal(t, "src-1", node.SourceID)
		assert.Equal(t, NodeTypeSource, node.NodeType)
		assert.True(t, node.UpdatedAt.After(node.CreatedAt) || node.UpdatedAt.Equal(node.CreatedAt))
	})

	t.Run("PositionOnly", func(t *testing.T) {
		x, y := 120.5, -40.0
		node, err := store.UpdateNode(created.ID, NodeUpdate{PositionX: &x, PositionY: &y})
		require.NoError(t, err)
		assert.Equal(t, 120.5, node.PositionX)
		assert.Equal(t, -40.0, node.PositionY)
		assert.Equal(t, "raw_events_v2", node.Name)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		empty := ""
		_, err := store.UpdateNode(created.ID, NodeUpdate{Name: &empty})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("NotFound", func(t *testing.T) {
		name := "whatever"
		_, err := store.UpdateNode("missing", NodeUpdate{Name: &name})
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestCreateEdge(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "")
	b := mustCreateNode(t, store, "b", NodeTypeTransform, "")

	t.Run("Success", func(t *testing.T) {
		edge, err := store.CreateEdge(EdgeSpec{SourceNodeID: a.ID, TargetNodeID: b.ID, EdgeType: EdgeTypeTransformsTo})
		require.NoError(t, err)
		assert.Equal(t, a.ID, edge.SourceNodeID)
		assert.Equal(t, b.ID, edge.TargetNodeID)
	})

	t.Run("DanglingSourceRejected", func(t *testing.T) {
		_, err := store.CreateEdge(EdgeSpec{SourceNodeID: "missing", TargetNodeID: b.ID, EdgeType: EdgeTypeFeedsInto})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "source_node_id", validation.Field)
	})

	t.Run("DanglingTargetRejected", func(t *testing.T) {
		_, err := store.CreateEdge(EdgeSpec{SourceNodeID: a.ID, TargetNodeID: "missing", EdgeType: EdgeTypeFeedsInto})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "target_node_id", validation.Field)
	})

	t.Run("UnknownEdgeTypeRejected", func(t *testing.T) {
		_, err := store.CreateEdge(EdgeSpec{SourceNodeID: a.ID, TargetNodeID: b.ID, EdgeType: "points_at"})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
	})
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "")
	b := mustCreateNode(t, store, "b", NodeTypeTransform, "")
	c := mustCreateNode(t, store, "c", NodeTypeSink, "")
	mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, b.ID, c.ID, EdgeTypeFeedsInto)

	require.NoError(t, store.DeleteNode(b.ID))

	graph := store.Graph()
	assert.Len(t, graph.Nodes, 2)
	assert.Empty(t, graph.Edges, "every edge referencing the deleted node must be gone")

	err := store.DeleteNode(b.ID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteEdge(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "")
	b := mustCreateNode(t, store, "b", NodeTypeSink, "")
	edge := mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeFeedsInto)

	require.NoError(t, store.DeleteEdge(edge.ID))
	assert.Empty(t, store.Graph().Edges)

	err := store.DeleteEdge(edge.ID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSourceGraph(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "src-1")
	b := mustCreateNode(t, store, "b", NodeTypeTransform, "")
	c := mustCreateNode(t, store, "c", NodeTypeSink, "")
	mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, b.ID, c.ID, EdgeTypeFeedsInto)

	t.Run("OneHopNeighborhood", func(t *testing.T) {
		graph, err := store.SourceGraph("src-1")
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 2, "root plus its one-hop neighbor")
		assert.Len(t, graph.Edges, 1)

		ids := []string{graph.Nodes[0].ID, graph.Nodes[1].ID}
		assert.Contains(t, ids, a.ID)
		assert.Contains(t, ids, b.ID)
		assert.NotContains(t, ids, c.ID)
	})

	t.Run("UnknownSource", func(t *testing.T) {
		_, err := store.SourceGraph("src-404")
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestBatchUpdatePositions(t *testing.T) {
	store := NewStore()
	x := mustCreateNode(t, store, "x", NodeTypeSource, "")

	updated := store.BatchUpdatePositions([]PositionUpdate{
		{NodeID: x.ID, PositionX: 1, PositionY: 1},
		{NodeID: "doesnotexist", PositionX: 2, PositionY: 2},
	})
	assert.Equal(t, 1, updated, "unknown ids are skipped, not counted, and never fail the batch")

	node, err := store.GetNode(x.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, node.PositionX)
	assert.Equal(t, 1.0, node.PositionY)
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "")
	b := mustCreateNode(t, store, "b", NodeTypeSink, "")
	mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeFeedsInto)

	snapshot := store.Snapshot()
	require.NoError(t, store.DeleteNode(b.ID))

	// The snapshot taken before the delete still holds the old view.
	assert.Len(t, snapshot.Nodes, 2)
	assert.Len(t, snapshot.Edges, 1)
	assert.Len(t, store.Graph().Nodes, 1)
}
