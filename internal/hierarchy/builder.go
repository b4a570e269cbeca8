package hierarchy

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CancelFunc is polled before each promotion pass and, on the sequential
// summarization path, before each cluster; a true return aborts the build
// with ErrCancelled. When BuildConfig.SummarizeWorkers > 1 a level's
// clusters are summarized together and it is not polled between them.
type CancelFunc func() bool

// Builder owns node creation for a HierarchyTree: it wires the clusterer and
// summarizer into the iterative promotion loop of spec.md §4.4.
type Builder struct {
	config  BuildConfig
	backend SummarizationBackend
}

// NewBuilder constructs a Builder. backend may be nil.
func NewBuilder(config BuildConfig, backend SummarizationBackend) *Builder {
	return &Builder{config: config, backend: backend}
}

// BuildHierarchy constructs a HierarchyTree from a corpus of documents.
// Empty input returns an empty, valid tree. A Cancel func, if non-nil, is
// polled as described on CancelFunc.
func (b *Builder) BuildHierarchy(ctx context.Context, corpusID string, docs []Document, cancel CancelFunc) (*HierarchyTree, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if err := validateDocuments(docs); err != nil {
		return nil, err
	}

	tree := NewEmptyTree(corpusID)
	if len(docs) == 0 {
		return tree, nil
	}

	clusterer := NewClusterer(b.config.Cluster)
	summarizer := NewSummarizer(b.config.Summary, b.backend)

	leaves := make([]*DocumentNode, len(docs))
	for i, d := range docs {
		leaves[i] = b.newLeaf(d)
		tree.Nodes[leaves[i].ID] = leaves[i]
	}

	current := leaves
	level := 0
	var roots []*DocumentNode
	var metrics BuildMetrics
	var totalClusterSize, totalCohesion float64
	var clusterCount int

	for level < b.config.MaxLevels && len(current) >= b.config.MinNodesPerLevel {
		if cancel != nil && cancel() {
			metrics.Incomplete = true
			tree.Metrics = metrics
			return tree, ErrCancelled
		}

		clusterStart := time.Now()
		clusters, err := clusterer.ClusterDocuments(current)
		metrics.ClusteringDuration += time.Since(clusterStart)
		if err != nil {
			return nil, err
		}
		if len(clusters) == 0 {
			break
		}

		if len(clusters) == 1 && len(clusters[0].Members) == len(current) {
			for _, n := range current {
				n.ParentID = ""
				roots = append(roots, n)
			}
			break
		}

		var summaries []ClusterSummary
		if b.config.SummarizeWorkers > 1 {
			summaryStart := time.Now()
			var err error
			summaries, err = summarizeClustersConcurrently(ctx, summarizer, clusters, b.config.SummarizeWorkers)
			metrics.SummarizationDuration += time.Since(summaryStart)
			if err != nil {
				return nil, err
			}
			metrics.SummariesProduced += len(summaries)
		} else {
			summaries = make([]ClusterSummary, len(clusters))
			for i, cluster := range clusters {
				if cancel != nil && cancel() {
					metrics.Incomplete = true
					tree.Metrics = metrics
					return tree, ErrCancelled
				}

				summaryStart := time.Now()
				summary, err := summarizer.SummarizeCluster(ctx, cluster)
				metrics.SummarizationDuration += time.Since(summaryStart)
				if err != nil {
					return nil, err
				}
				metrics.SummariesProduced++
				summaries[i] = summary
			}
		}

		parents := make([]*DocumentNode, 0, len(clusters))
		for i, cluster := range clusters {
			parent := b.newInternal(level+1, cluster, summaries[i])
			tree.Nodes[parent.ID] = parent
			for _, m := range cluster.Members {
				m.ParentID = parent.ID
			}
			parents = append(parents, parent)

			totalClusterSize += float64(len(cluster.Members))
			totalCohesion += cluster.Cohesion
			clusterCount++
		}

		metrics.PromotionPasses++
		level++

		if level >= b.config.MaxLevels || len(parents) < b.config.MinNodesPerLevel {
			for _, p := range parents {
				p.ParentID = ""
				roots = append(roots, p)
			}
			break
		}

		current = parents
	}

	if len(roots) == 0 {
		for _, n := range tree.Nodes {
			if n.ParentID == "" {
				roots = append(roots, n)
			}
		}
		sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	}

	tree.RootIDs = make([]string, len(roots))
	for i, r := range roots {
		tree.RootIDs[i] = r.ID
	}

	tree.MaxDepth = computeMaxDepth(tree)
	tree.LeafCount, tree.InternalCount = countNodes(tree)

	if clusterCount > 0 {
		metrics.AvgClusterSize = totalClusterSize / float64(clusterCount)
		metrics.AvgCohesion = totalCohesion / float64(clusterCount)
	}
	tree.Metrics = metrics

	return tree, nil
}

func (b *Builder) newLeaf(d Document) *DocumentNode {
	return &DocumentNode{
		ID:          d.ID,
		Type:        NodeLeaf,
		Level:       0,
		Content:     d.Content,
		Embedding:   d.Embedding,
		MaterialIDs: materialIDSet(d.ID),
		Metadata: NodeMetadata{
			ClusterSize:   1,
			AvgSimilarity: 1.0,
			TopKeywords:   d.Keywords,
			WeekRange:     weekRangeFor(d.Week, d.Week),
		},
	}
}

func (b *Builder) newInternal(level int, cluster DocumentCluster, summary ClusterSummary) *DocumentNode {
	childIDs := make([]string, len(cluster.Members))
	materialSets := make([]map[string]struct{}, len(cluster.Members))
	var weekRange *WeekRange

	for i, m := range cluster.Members {
		childIDs[i] = m.ID
		materialSets[i] = m.MaterialIDs
		weekRange = mergeWeekRange(weekRange, m.Metadata.WeekRange)
	}

	return &DocumentNode{
		ID:          newNodeID(),
		Type:        NodeInternal,
		Level:       level,
		Content:     summary.Summary,
		Embedding:   cluster.Centroid,
		MaterialIDs: unionMaterialIDs(materialSets...),
		ChildIDs:    childIDs,
		Metadata: NodeMetadata{
			ClusterSize:   len(cluster.Members),
			AvgSimilarity: cluster.Cohesion,
			TopKeywords:   summary.Keywords,
			WeekRange:     weekRange,
		},
	}
}

func weekRangeFor(min, max *int) *WeekRange {
	if min == nil {
		return nil
	}
	return &WeekRange{Min: *min, Max: *max}
}

func mergeWeekRange(acc *WeekRange, next *WeekRange) *WeekRange {
	if next == nil {
		return acc
	}
	if acc == nil {
		cp := *next
		return &cp
	}
	if next.Min < acc.Min {
		acc.Min = next.Min
	}
	if next.Max > acc.Max {
		acc.Max = next.Max
	}
	return acc
}

func computeMaxDepth(tree *HierarchyTree) int {
	depth := make(map[string]int)
	var maxDepth int

	var visit func(id string, d int)
	visit = func(id string, d int) {
		if d > maxDepth {
			maxDepth = d
		}
		if existing, ok := depth[id]; ok && existing >= d {
			return
		}
		depth[id] = d
		node := tree.Nodes[id]
		if node == nil {
			return
		}
		for _, childID := range node.ChildIDs {
			visit(childID, d+1)
		}
	}

	for _, rootID := range tree.RootIDs {
		visit(rootID, 0)
	}
	return maxDepth
}

func countNodes(tree *HierarchyTree) (leaves, internals int) {
	for _, n := range tree.Nodes {
		if n.Type == NodeLeaf {
			leaves++
		} else {
			internals++
		}
	}
	return
}

// validateDocuments enforces spec.md §6.2 at the boundary: positive,
// consistent dimensionality and finite components across the whole batch.
// Every offending document is reported, not just the first.
func validateDocuments(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var merr error
	dim := -1
	seen := make(map[string]struct{}, len(docs))

	for _, d := range docs {
		if len(d.Embedding) == 0 {
			merr = appendMultiError(merr, invalidInputf("document %q has empty embedding", d.ID))
			continue
		}
		if dim == -1 {
			dim = len(d.Embedding)
		} else if len(d.Embedding) != dim {
			merr = appendMultiError(merr, dimensionMismatch(dim, len(d.Embedding)))
		}
		if !isFinite(d.Embedding) {
			merr = appendMultiError(merr, invalidInputf("document %q has non-finite embedding component", d.ID))
		}
		if _, dup := seen[d.ID]; dup {
			merr = appendMultiError(merr, invalidInputf("duplicate document id %q", d.ID))
		}
		seen[d.ID] = struct{}{}
	}

	return merr
}

// summarizeClustersConcurrently runs the summarizer over independent
// clusters of the same level concurrently, preserving the clusterer's
// return order in the produced slice (spec.md §5, "Parallelism (optional)").
// BuildHierarchy calls this instead of its sequential loop when
// BuildConfig.SummarizeWorkers > 1.
func summarizeClustersConcurrently(ctx context.Context, summarizer *Summarizer, clusters []DocumentCluster, workers int) ([]ClusterSummary, error) {
	out := make([]ClusterSummary, len(clusters))
	errs := make([]error, len(clusters))

	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, cluster := range clusters {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, c DocumentCluster) {
			defer wg.Done()
			defer func() { <-sem }()
			summary, err := summarizer.SummarizeCluster(ctx, c)
			out[idx] = summary
			errs[idx] = err
		}(i, cluster)
	}
	wg.Wait()

	var merr error
	for _, err := range errs {
		merr = appendMultiError(merr, err)
	}
	return out, merr
}
