package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeNames(nodes []LineageNode) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}

func TestComputeImpactChain(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "src-1")
	b := mustCreateNode(t, store, "b", NodeTypeTransform, "")
	c := mustCreateNode(t, store, "c", NodeTypeSink, "")
	ab := mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, b.ID, c.ID, EdgeTypeFeedsInto)

	t.Run("DownstreamFromRoot", func(t *testing.T) {
		result, err := ComputeImpact(store.Snapshot(), a.ID, DirectionBoth)
		require.NoError(t, err)
		assert.Empty(t, result.Upstream)
		assert.ElementsMatch(t, []string{"b", "c"}, nodeNames(result.Downstream))
	})

	t.Run("UpstreamFromLeaf", func(t *testing.T) {
		result, err := ComputeImpact(store.Snapshot(), c.ID, DirectionBoth)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, nodeNames(result.Upstream))
		assert.Empty(t, result.Downstream)
	})

	t.Run("SingleDirection", func(t *testing.T) {
		result, err := ComputeImpact(store.Snapshot(), b.ID, DirectionDownstream)
		require.NoError(t, err)
		assert.Empty(t, result.Upstream)
		assert.ElementsMatch(t, []string{"c"}, nodeNames(result.Downstream))
	})

	t.Run("RootNotFound", func(t *testing.T) {
		_, err := ComputeImpact(store.Snapshot(), "missing", DirectionBoth)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("EdgeDeletionEmptiesDownstream", func(t *testing.T) {
		require.NoError(t, store.DeleteEdge(ab.ID))
		result, err := ComputeImpact(store.Snapshot(), a.ID, DirectionBoth)
		require.NoError(t, err)
		assert.Empty(t, result.Downstream)
	})
}

func TestComputeImpactCycleTerminates(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeTransform, "")
	b := mustCreateNode(t, store, "b", NodeTypeTransform, "")
	c := mustCreateNode(t, store, "c", NodeTypeTransform, "")
	mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, b.ID, c.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, c.ID, a.ID, EdgeTypeTransformsTo)

	result, err := ComputeImpact(store.Snapshot(), a.ID, DirectionBoth)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, nodeNames(result.Downstream))
	assert.ElementsMatch(t, []string{"b", "c"}, nodeNames(result.Upstream))
	assert.NotContains(t, nodeNames(result.Downstream), "a", "the root never appears in its own reachable set")
}

func TestComputeImpactDiamondNoDuplicates(t *testing.T) {
	store := NewStore()
	a := mustCreateNode(t, store, "a", NodeTypeSource, "")
	b := mustCreateNode(t, store, "b", NodeTypeTransform, "")
	c := mustCreateNode(t, store, "c", NodeTypeTransform, "")
	d := mustCreateNode(t, store, "d", NodeTypeSink, "")
	mustCreateEdge(t, store, a.ID, b.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, a.ID, c.ID, EdgeTypeTransformsTo)
	mustCreateEdge(t, store, b.ID, d.ID, EdgeTypeFeedsInto)
	mustCreateEdge(t, store, c.ID, d.ID, EdgeTypeFeedsInto)

	result, err := ComputeImpact(store.Snapshot(), a.ID, DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, result.Downstream, 3, "d is reachable via two paths but returned once")
	assert.ElementsMatch(t, []string{"b", "c", "d"}, nodeNames(result.Downstream))
}
