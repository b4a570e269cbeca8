// Package hierarchy implements a hierarchical retrieval index over a corpus
// of embedded documents: agglomerative clustering, extractive/abstractive
// summarization, and the iterative builder and traverser that wire them into
// a forest of DocumentNode trees.
package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

// NodeType distinguishes an original-document leaf from a cluster-summary
// internal node.
type NodeType string

const (
	NodeLeaf     NodeType = "leaf"
	NodeInternal NodeType = "internal"
)

// Document is a single unit of input corpus: stable external id, text,
// embedding, and optional keywords/week metadata (spec.md §6.1).
type Document struct {
	ID        string
	Content   string
	Embedding []float64
	Keywords  []string
	Week      *int
}

// WeekRange is the component-wise [min, max] of week numbers covered by a
// node's descendants, present only when at least one descendant has a week.
type WeekRange struct {
	Min int
	Max int
}

// NodeMetadata carries the derived attributes attached to a DocumentNode at
// creation time.
type NodeMetadata struct {
	ClusterSize   int
	AvgSimilarity float64
	TopKeywords   []string
	WeekRange     *WeekRange
}

// DocumentNode is the unit of the tree: either a leaf wrapping one input
// document or an internal node summarizing a cluster of children.
type DocumentNode struct {
	ID          string
	Type        NodeType
	Level       int
	Content     string
	Embedding   []float64
	MaterialIDs map[string]struct{}
	ParentID    string // empty means root
	ChildIDs    []string
	Metadata    NodeMetadata
}

func newNodeID() string {
	return uuid.NewString()
}

// materialIDSet builds a MaterialIDs set from a slice of ids.
func materialIDSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// unionMaterialIDs returns the union of a set of MaterialIDs maps.
func unionMaterialIDs(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		for id := range s {
			out[id] = struct{}{}
		}
	}
	return out
}

// DocumentCluster is the ephemeral value produced by the clusterer during
// construction: a set of member nodes, their centroid, and a cohesion score.
type DocumentCluster struct {
	Members  []*DocumentNode
	Centroid []float64
	Cohesion float64
}

// BuildMetrics records wall-clock and aggregate statistics for one
// buildHierarchy invocation (spec.md §4.4 step 5).
type BuildMetrics struct {
	ClusteringDuration   time.Duration
	SummarizationDuration time.Duration
	PromotionPasses      int
	SummariesProduced    int
	AvgClusterSize       float64
	AvgCohesion          float64
	Incomplete           bool // set when a build was aborted by cancellation
}

// HierarchyTree is the immutable container produced by a build: all nodes
// keyed by id, the set of root ids, and summary statistics.
type HierarchyTree struct {
	ID            string
	CorpusID      string
	Nodes         map[string]*DocumentNode
	RootIDs       []string
	MaxDepth      int
	LeafCount     int
	InternalCount int
	BuiltAt       time.Time
	Metrics       BuildMetrics
}

// NewEmptyTree returns a valid, empty tree for a corpus with no documents.
func NewEmptyTree(corpusID string) *HierarchyTree {
	return &HierarchyTree{
		ID:       newNodeID(),
		CorpusID: corpusID,
		Nodes:    make(map[string]*DocumentNode),
		RootIDs:  nil,
		BuiltAt:  time.Now(),
	}
}
