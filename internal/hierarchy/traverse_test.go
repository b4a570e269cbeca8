package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSampleTree constructs a small two-level tree by hand:
//
//	root (internal, centroid ~ [1,0])
//	├── child-a (leaf, [1,0])
//	└── child-b (leaf, [0.8,0.2])
//	root-2 (leaf, [0,1])
func buildSampleTree() *HierarchyTree {
	tree := NewEmptyTree("sample")

	childA := leafNode("child-a", []float64{1, 0})
	childB := leafNode("child-b", []float64{0.8, 0.2})
	root2 := leafNode("root-2", []float64{0, 1})

	root1 := &DocumentNode{
		ID:          "root-1",
		Type:        NodeInternal,
		Level:       1,
		Content:     "summary of child-a and child-b",
		Embedding:   Centroid([][]float64{childA.Embedding, childB.Embedding}),
		MaterialIDs: unionMaterialIDs(childA.MaterialIDs, childB.MaterialIDs),
		ChildIDs:    []string{"child-a", "child-b"},
	}
	childA.ParentID = "root-1"
	childB.ParentID = "root-1"

	tree.Nodes["root-1"] = root1
	tree.Nodes["child-a"] = childA
	tree.Nodes["child-b"] = childB
	tree.Nodes["root-2"] = root2
	tree.RootIDs = []string{"root-1", "root-2"}
	return tree
}

func TestTraverseFiltersBelowMinSimilarity(t *testing.T) {
	tree := buildSampleTree()
	cfg := DefaultTraverseConfig()
	cfg.MinSimilarity = 0.9
	tr := NewTraverser(cfg)

	result, err := tr.Traverse(tree, []float64{1, 0})
	require.NoError(t, err)

	for _, n := range result.Nodes {
		assert.GreaterOrEqual(t, result.Similarities[n.ID], 0.9)
	}
}

func TestTraverseRespectsMaxNodesCap(t *testing.T) {
	tree := buildSampleTree()
	cfg := DefaultTraverseConfig()
	cfg.MinSimilarity = 0
	cfg.MaxNodes = 2
	tr := NewTraverser(cfg)

	result, err := tr.Traverse(tree, []float64{1, 0})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Nodes), 2)
}

func TestTraverseMaterialCoverage(t *testing.T) {
	tree := buildSampleTree()
	cfg := DefaultTraverseConfig()
	cfg.MinSimilarity = 0
	cfg.MaxNodes = 100
	tr := NewTraverser(cfg)

	result, err := tr.Traverse(tree, []float64{1, 0})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"child-a", "child-b", "root-2"}, result.MaterialIDs)
}

func TestTraverseResultsAreStablySortedBySimilarity(t *testing.T) {
	tree := buildSampleTree()
	cfg := DefaultTraverseConfig()
	cfg.MinSimilarity = 0
	cfg.MaxNodes = 100
	tr := NewTraverser(cfg)

	result, err := tr.Traverse(tree, []float64{1, 0})
	require.NoError(t, err)

	for i := 1; i < len(result.Nodes); i++ {
		prevSim := result.Similarities[result.Nodes[i-1].ID]
		curSim := result.Similarities[result.Nodes[i].ID]
		assert.GreaterOrEqual(t, prevSim, curSim)
	}
}

func TestTraverseIsDeterministicAcrossRuns(t *testing.T) {
	cfg := DefaultTraverseConfig()
	cfg.MinSimilarity = 0
	tr := NewTraverser(cfg)

	first, err := tr.Traverse(buildSampleTree(), []float64{1, 0})
	require.NoError(t, err)
	second, err := tr.Traverse(buildSampleTree(), []float64{1, 0})
	require.NoError(t, err)

	require.Equal(t, len(first.Nodes), len(second.Nodes))
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].ID, second.Nodes[i].ID)
	}
	assert.Equal(t, first.MaterialIDs, second.MaterialIDs)
}

func TestTraverseDimensionMismatch(t *testing.T) {
	tree := buildSampleTree()
	tr := NewTraverser(DefaultTraverseConfig())

	_, err := tr.Traverse(tree, []float64{1, 0, 0})
	require.Error(t, err)
	assert.True(t, IsDimensionMismatch(err))
}

func TestTraverseEmptyTree(t *testing.T) {
	tr := NewTraverser(DefaultTraverseConfig())
	result, err := tr.Traverse(NewEmptyTree("empty"), []float64{1, 0})
	require.NoError(t, err)
	assert.Empty(t, result.Nodes)
}

func TestTraverseStrategiesAllReturnResults(t *testing.T) {
	for _, strategy := range []Strategy{StrategyBreadthFirst, StrategyDepthFirst, StrategyAdaptive} {
		cfg := DefaultTraverseConfig()
		cfg.Strategy = strategy
		cfg.MinSimilarity = 0
		tr := NewTraverser(cfg)

		result, err := tr.Traverse(buildSampleTree(), []float64{1, 0})
		require.NoError(t, err, "strategy %s", strategy)
		assert.NotEmpty(t, result.Nodes, "strategy %s", strategy)
	}
}

func TestTraverseIncludeParents(t *testing.T) {
	tree := buildSampleTree()
	cfg := DefaultTraverseConfig()
	// root-1 scores ~0.994 against the query, below this threshold, while
	// child-a scores 1.0; root-1 can only appear as child-a's parent.
	cfg.MinSimilarity = 0.995
	cfg.MaxNodes = 100
	cfg.IncludeParents = true
	cfg.Strategy = StrategyDepthFirst
	tr := NewTraverser(cfg)

	result, err := tr.Traverse(tree, []float64{1, 0})
	require.NoError(t, err)

	var hasRoot bool
	for _, n := range result.Nodes {
		if n.ID == "root-1" {
			hasRoot = true
		}
	}
	assert.True(t, hasRoot, "parent of a qualifying child should be included")
}
