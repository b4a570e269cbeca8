package hierarchy

// Linkage defines how pairwise member similarities reduce to a single
// cluster-to-cluster similarity.
type Linkage string

const (
	LinkageAverage  Linkage = "average"
	LinkageComplete Linkage = "complete"
	LinkageSingle   Linkage = "single"
)

// Strategy is a traversal expansion order.
type Strategy string

const (
	StrategyBreadthFirst Strategy = "breadth-first"
	StrategyDepthFirst   Strategy = "depth-first"
	StrategyAdaptive     Strategy = "adaptive"
)

// ClusterConfig configures the agglomerative clusterer (spec.md §4.2, §6.5).
type ClusterConfig struct {
	SimilarityThreshold float64
	MinClusterSize      int
	MaxClusterSize      int
	Linkage             Linkage
}

// DefaultClusterConfig returns the recognized defaults from spec.md §6.5.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		SimilarityThreshold: 0.7,
		MinClusterSize:      2,
		MaxClusterSize:      10,
		Linkage:             LinkageAverage,
	}
}

// Validate checks the configuration against its allowed ranges.
func (c ClusterConfig) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return invalidInputf("clustering.similarityThreshold %v out of [0,1]", c.SimilarityThreshold)
	}
	if c.MinClusterSize < 1 {
		return invalidInputf("clustering.minClusterSize %d must be >= 1", c.MinClusterSize)
	}
	if c.MaxClusterSize < c.MinClusterSize {
		return invalidInputf("clustering.maxClusterSize %d must be >= minClusterSize %d", c.MaxClusterSize, c.MinClusterSize)
	}
	switch c.Linkage {
	case LinkageAverage, LinkageComplete, LinkageSingle:
	default:
		return invalidInputf("clustering.linkage %q not recognized", c.Linkage)
	}
	return nil
}

// SummaryConfig configures the summarizer (spec.md §4.3, §6.5).
type SummaryConfig struct {
	UseLLM          bool
	LLMProvider     string
	TargetLength    int
	MaxInputTokens  int
	IncludeKeywords bool
}

// DefaultSummaryConfig returns the recognized defaults from spec.md §6.5.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		UseLLM:          false,
		LLMProvider:     "",
		TargetLength:    300,
		MaxInputTokens:  4000,
		IncludeKeywords: true,
	}
}

func (c SummaryConfig) Validate() error {
	if c.TargetLength < 1 {
		return invalidInputf("summarization.targetLength %d must be >= 1", c.TargetLength)
	}
	if c.MaxInputTokens < 1 {
		return invalidInputf("summarization.maxInputTokens %d must be >= 1", c.MaxInputTokens)
	}
	return nil
}

// BuildConfig configures the hierarchy builder's promotion loop (spec.md
// §4.4, §6.5), plus the clusterer and summarizer configs it wires together.
type BuildConfig struct {
	MaxLevels        int
	MinNodesPerLevel int
	Cluster          ClusterConfig
	Summary          SummaryConfig

	// SummarizeWorkers, when > 1, summarizes a level's clusters concurrently
	// (spec.md §5, "Parallelism (optional)") instead of sequentially. 0 or 1
	// keeps the default sequential path.
	SummarizeWorkers int
}

// DefaultBuildConfig returns the recognized defaults from spec.md §6.5.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		MaxLevels:        3,
		MinNodesPerLevel: 2,
		Cluster:          DefaultClusterConfig(),
		Summary:          DefaultSummaryConfig(),
	}
}

func (c BuildConfig) Validate() error {
	if c.MaxLevels < 1 {
		return invalidInputf("builder.maxLevels %d must be >= 1", c.MaxLevels)
	}
	if c.MinNodesPerLevel < 2 {
		return invalidInputf("builder.minNodesPerLevel %d must be >= 2", c.MinNodesPerLevel)
	}
	if err := c.Cluster.Validate(); err != nil {
		return err
	}
	return c.Summary.Validate()
}

// TraverseConfig configures a single traversal (spec.md §4.5, §6.5).
type TraverseConfig struct {
	Strategy        Strategy
	MaxDepth        int
	MaxNodes        int
	MinSimilarity   float64
	IncludeParents  bool
}

// DefaultTraverseConfig returns the recognized defaults from spec.md §6.5.
func DefaultTraverseConfig() TraverseConfig {
	return TraverseConfig{
		Strategy:      StrategyBreadthFirst,
		MaxDepth:      -1,
		MaxNodes:      10,
		MinSimilarity: 0.5,
	}
}

func (c TraverseConfig) Validate() error {
	switch c.Strategy {
	case StrategyBreadthFirst, StrategyDepthFirst, StrategyAdaptive:
	default:
		return invalidInputf("traversal.strategy %q not recognized", c.Strategy)
	}
	if c.MaxDepth < -1 {
		return invalidInputf("traversal.maxDepth %d must be >= -1", c.MaxDepth)
	}
	if c.MaxNodes < 1 {
		return invalidInputf("traversal.maxNodes %d must be >= 1", c.MaxNodes)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return invalidInputf("traversal.minSimilarity %v out of [0,1]", c.MinSimilarity)
	}
	return nil
}
