package hierarchy

import (
	"container/heap"
	"sort"
	"time"
)

// TraverseMetrics records the statistics of one traversal (spec.md §4.5).
type TraverseMetrics struct {
	TraversalTime   time.Duration
	NodesVisited    int
	NodesReturned   int
	MaxDepthReached int
	AvgSimilarity   float64
}

// TraverseResult is the outcome of one query-driven tree walk.
type TraverseResult struct {
	Nodes        []*DocumentNode
	MaterialIDs  []string
	Path         []string
	Similarities map[string]float64
	Metrics      TraverseMetrics
}

// Traverser answers queries against a built HierarchyTree (spec.md §4.5).
type Traverser struct {
	config TraverseConfig
}

// NewTraverser builds a Traverser for the given configuration.
func NewTraverser(config TraverseConfig) *Traverser {
	return &Traverser{config: config}
}

type frontierEntry struct {
	nodeID     string
	similarity float64
	depth      int
}

// priorityFrontier is a max-heap over frontierEntry.similarity, used by the
// adaptive strategy's best-first expansion.
type priorityFrontier []frontierEntry

func (p priorityFrontier) Len() int { return len(p) }
func (p priorityFrontier) Less(i, j int) bool {
	if p[i].similarity != p[j].similarity {
		return p[i].similarity > p[j].similarity
	}
	return p[i].nodeID < p[j].nodeID
}
func (p priorityFrontier) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p *priorityFrontier) Push(x interface{}) { *p = append(*p, x.(frontierEntry)) }
func (p *priorityFrontier) Pop() interface{} {
	old := *p
	n := len(old)
	item := old[n-1]
	*p = old[:n-1]
	return item
}

// Traverse walks tree from its roots, expanding nodes in the configured
// strategy's order, and returns the ranked nodes whose query similarity
// meets the configured minimum, together with their covered material ids.
func (t *Traverser) Traverse(tree *HierarchyTree, query []float64) (*TraverseResult, error) {
	if err := t.config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &TraverseResult{Similarities: make(map[string]float64)}

	if tree == nil || len(tree.Nodes) == 0 {
		result.Metrics.TraversalTime = time.Since(start)
		return result, nil
	}

	if len(query) > 0 {
		for _, n := range tree.Nodes {
			if len(n.Embedding) != len(query) {
				return nil, dimensionMismatch(len(query), len(n.Embedding))
			}
			break
		}
	}

	simCache := make(map[string]float64)
	simOf := func(id string) (float64, error) {
		if s, ok := simCache[id]; ok {
			return s, nil
		}
		node := tree.Nodes[id]
		sim, err := Cosine(query, node.Embedding)
		if err != nil {
			return 0, err
		}
		simCache[id] = sim
		return sim, nil
	}

	var selected []*DocumentNode
	var path []string
	visited := make(map[string]bool)
	maxDepthReached := 0

	addIfQualifies := func(id string) error {
		sim, err := simOf(id)
		if err != nil {
			return err
		}
		if sim >= t.config.MinSimilarity {
			selected = append(selected, tree.Nodes[id])
		}
		return nil
	}

	visit := func(id string) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		path = append(path, id)
		result.Metrics.NodesVisited++
		return addIfQualifies(id)
	}

	switch t.config.Strategy {
	case StrategyDepthFirst:
		var recurse func(id string, depth int) error
		recurse = func(id string, depth int) error {
			if depth > maxDepthReached {
				maxDepthReached = depth
			}
			if len(selected) >= t.config.MaxNodes {
				return nil
			}
			if t.config.MaxDepth >= 0 && depth > t.config.MaxDepth {
				return nil
			}
			if err := visit(id); err != nil {
				return err
			}
			if len(selected) >= t.config.MaxNodes {
				return nil
			}

			node := tree.Nodes[id]
			children := append([]string(nil), node.ChildIDs...)
			sort.Slice(children, func(i, j int) bool {
				si, _ := simOf(children[i])
				sj, _ := simOf(children[j])
				return si > sj
			})
			for _, childID := range children {
				if len(selected) >= t.config.MaxNodes {
					return nil
				}
				if err := recurse(childID, depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		for _, rootID := range tree.RootIDs {
			if len(selected) >= t.config.MaxNodes {
				break
			}
			if err := recurse(rootID, 0); err != nil {
				return nil, err
			}
		}

	case StrategyAdaptive:
		pf := &priorityFrontier{}
		heap.Init(pf)
		for _, rootID := range tree.RootIDs {
			sim, err := simOf(rootID)
			if err != nil {
				return nil, err
			}
			heap.Push(pf, frontierEntry{nodeID: rootID, similarity: sim, depth: 0})
		}
		for pf.Len() > 0 {
			if len(selected) >= t.config.MaxNodes {
				break
			}
			entry := heap.Pop(pf).(frontierEntry)
			if entry.depth > maxDepthReached {
				maxDepthReached = entry.depth
			}
			if t.config.MaxDepth >= 0 && entry.depth > t.config.MaxDepth {
				continue
			}
			if err := visit(entry.nodeID); err != nil {
				return nil, err
			}
			node := tree.Nodes[entry.nodeID]
			for _, childID := range node.ChildIDs {
				sim, err := simOf(childID)
				if err != nil {
					return nil, err
				}
				heap.Push(pf, frontierEntry{nodeID: childID, similarity: sim, depth: entry.depth + 1})
			}
		}

	default: // StrategyBreadthFirst
		level := append([]string(nil), tree.RootIDs...)
		depth := 0
		for len(level) > 0 {
			if len(selected) >= t.config.MaxNodes {
				break
			}
			if depth > maxDepthReached {
				maxDepthReached = depth
			}
			if t.config.MaxDepth >= 0 && depth > t.config.MaxDepth {
				break
			}

			sort.Slice(level, func(i, j int) bool {
				si, _ := simOf(level[i])
				sj, _ := simOf(level[j])
				return si > sj
			})

			var next []string
			for _, id := range level {
				if len(selected) >= t.config.MaxNodes {
					break
				}
				if err := visit(id); err != nil {
					return nil, err
				}
				next = append(next, tree.Nodes[id].ChildIDs...)
			}
			level = next
			depth++
		}
	}

	if len(selected) > t.config.MaxNodes {
		selected = selected[:t.config.MaxNodes]
	}

	if t.config.IncludeParents {
		present := make(map[string]bool, len(selected))
		for _, n := range selected {
			present[n.ID] = true
		}
		var withParents []*DocumentNode
		withParents = append(withParents, selected...)
		for _, n := range selected {
			if n.ParentID == "" || present[n.ParentID] {
				continue
			}
			parent := tree.Nodes[n.ParentID]
			if parent == nil {
				continue
			}
			sim, err := simOf(parent.ID)
			if err != nil {
				return nil, err
			}
			result.Similarities[parent.ID] = sim
			withParents = append(withParents, parent)
			present[parent.ID] = true
		}
		selected = withParents
	}

	for _, n := range selected {
		sim, _ := simOf(n.ID)
		result.Similarities[n.ID] = sim
	}

	sort.SliceStable(selected, func(i, j int) bool {
		si := result.Similarities[selected[i].ID]
		sj := result.Similarities[selected[j].ID]
		if si != sj {
			return si > sj
		}
		if selected[i].Level != selected[j].Level {
			return selected[i].Level < selected[j].Level
		}
		return selected[i].ID < selected[j].ID
	})

	result.Nodes = selected
	result.Path = path

	seenMaterial := make(map[string]bool)
	for _, n := range selected {
		ids := make([]string, 0, len(n.MaterialIDs))
		for id := range n.MaterialIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if seenMaterial[id] {
				continue
			}
			seenMaterial[id] = true
			result.MaterialIDs = append(result.MaterialIDs, id)
		}
	}

	result.Metrics.NodesReturned = len(selected)
	result.Metrics.MaxDepthReached = maxDepthReached
	if len(selected) > 0 {
		var sum float64
		for _, n := range selected {
			sum += result.Similarities[n.ID]
		}
		result.Metrics.AvgSimilarity = sum / float64(len(selected))
	}
	result.Metrics.TraversalTime = time.Since(start)

	return result, nil
}
