package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgonzap30/coursetree/internal/hierarchy"
	"github.com/dgonzap30/coursetree/internal/jsonx"
)

func newQueryCmd() *cobra.Command {
	var treePath, queryPath, strategy string
	var maxNodes int
	var minSimilarity float64

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Traverse a built hierarchy tree with a query embedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			treeRaw, err := os.ReadFile(treePath)
			if err != nil {
				return fmt.Errorf("read tree: %w", err)
			}
			var tree hierarchy.HierarchyTree
			if err := jsonx.Unmarshal(treeRaw, &tree); err != nil {
				return fmt.Errorf("parse tree: %w", err)
			}

			queryRaw, err := os.ReadFile(queryPath)
			if err != nil {
				return fmt.Errorf("read query embedding: %w", err)
			}
			var query []float64
			if err := jsonx.Unmarshal(queryRaw, &query); err != nil {
				return fmt.Errorf("parse query embedding: %w", err)
			}

			cfg := loadedConfig.HierarchyTraverseConfig()
			if strategy != "" {
				cfg.Strategy = hierarchy.Strategy(strategy)
			}
			if maxNodes > 0 {
				cfg.MaxNodes = maxNodes
			}
			if minSimilarity > 0 {
				cfg.MinSimilarity = minSimilarity
			}

			traverser := hierarchy.NewTraverser(cfg)
			result, err := traverser.Traverse(&tree, query)
			if err != nil {
				return fmt.Errorf("traverse: %w", err)
			}

			out, err := jsonx.Marshal(result)
			if err != nil {
				return fmt.Errorf("marshal result: %w", err)
			}
			_, err = os.Stdout.Write(append(out, '\n'))
			return err
		},
	}

	cmd.Flags().StringVar(&treePath, "tree", "", "path to a tree JSON produced by 'build' (required)")
	cmd.Flags().StringVar(&queryPath, "query", "", "path to a JSON array holding the query embedding (required)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override the configured traversal strategy")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "override the configured max nodes returned")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "override the configured minimum similarity")
	cmd.MarkFlagRequired("tree")
	cmd.MarkFlagRequired("query")

	return cmd
}
