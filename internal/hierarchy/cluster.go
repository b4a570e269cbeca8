package hierarchy

// workingCluster is the clusterer's internal mutable cluster representation,
// distinct from the immutable DocumentCluster value returned to callers.
type workingCluster struct {
	members  []*DocumentNode
	centroid []float64
	cohesion float64
}

// Clusterer performs agglomerative hierarchical clustering of DocumentNodes
// under a configurable linkage and stopping rule (spec.md §4.2).
type Clusterer struct {
	config ClusterConfig
}

// NewClusterer builds a Clusterer for the given configuration.
func NewClusterer(config ClusterConfig) *Clusterer {
	return &Clusterer{config: config}
}

// ClusterDocuments partitions a subset of nodes into clusters under the
// configured linkage, threshold, and size bounds. Empty input yields an
// empty, non-error output.
func (c *Clusterer) ClusterDocuments(nodes []*DocumentNode) ([]DocumentCluster, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	working := make([]*workingCluster, len(nodes))
	for i, n := range nodes {
		working[i] = &workingCluster{
			members:  []*DocumentNode{n},
			centroid: n.Embedding,
			cohesion: 1.0,
		}
	}

	for len(working) > 1 {
		bestI, bestJ, bestSim, found, err := c.bestPair(working)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		if bestSim < c.config.SimilarityThreshold {
			break
		}

		a, b := working[bestI], working[bestJ]
		if len(a.members)+len(b.members) > c.config.MaxClusterSize {
			break
		}

		merged, err := c.merge(a, b)
		if err != nil {
			return nil, err
		}

		next := make([]*workingCluster, 0, len(working)-1)
		for k, w := range working {
			if k == bestI || k == bestJ {
				continue
			}
			next = append(next, w)
		}
		next = append(next, merged)
		working = next
	}

	out := make([]DocumentCluster, 0, len(working))
	for _, w := range working {
		if len(w.members) < c.config.MinClusterSize {
			continue
		}
		out = append(out, DocumentCluster{
			Members:  w.members,
			Centroid: w.centroid,
			Cohesion: w.cohesion,
		})
	}

	return out, nil
}

// bestPair finds the most similar pair of clusters under the configured
// linkage, breaking ties by lower first index then lower second index.
func (c *Clusterer) bestPair(clusters []*workingCluster) (int, int, float64, bool, error) {
	bestI, bestJ := -1, -1
	bestSim := -2.0 // below any valid cosine

	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			sim, err := c.linkageSimilarity(clusters[i], clusters[j])
			if err != nil {
				return 0, 0, 0, false, err
			}
			if sim > bestSim {
				bestSim = sim
				bestI, bestJ = i, j
			}
		}
	}

	if bestI == -1 {
		return 0, 0, 0, false, nil
	}
	return bestI, bestJ, bestSim, true, nil
}

// linkageSimilarity computes the cluster-to-cluster similarity under the
// configured linkage from pairwise member similarities.
func (c *Clusterer) linkageSimilarity(a, b *workingCluster) (float64, error) {
	switch c.config.Linkage {
	case LinkageComplete:
		worst := 2.0
		for _, x := range a.members {
			for _, y := range b.members {
				sim, err := Cosine(x.Embedding, y.Embedding)
				if err != nil {
					return 0, err
				}
				if sim < worst {
					worst = sim
				}
			}
		}
		return worst, nil

	case LinkageSingle:
		best := -2.0
		for _, x := range a.members {
			for _, y := range b.members {
				sim, err := Cosine(x.Embedding, y.Embedding)
				if err != nil {
					return 0, err
				}
				if sim > best {
					best = sim
				}
			}
		}
		return best, nil

	default: // LinkageAverage
		var sum float64
		var n int
		for _, x := range a.members {
			for _, y := range b.members {
				sim, err := Cosine(x.Embedding, y.Embedding)
				if err != nil {
					return 0, err
				}
				sum += sim
				n++
			}
		}
		if n == 0 {
			return 0, nil
		}
		return sum / float64(n), nil
	}
}

// merge combines two working clusters into one, recomputing centroid and
// cohesion over the union of their members.
func (c *Clusterer) merge(a, b *workingCluster) (*workingCluster, error) {
	members := make([]*DocumentNode, 0, len(a.members)+len(b.members))
	members = append(members, a.members...)
	members = append(members, b.members...)

	vectors := make([][]float64, len(members))
	for i, m := range members {
		vectors[i] = m.Embedding
	}

	cohesion, err := Cohesion(vectors)
	if err != nil {
		return nil, err
	}

	return &workingCluster{
		members:  members,
		centroid: Centroid(vectors),
		cohesion: cohesion,
	}, nil
}
