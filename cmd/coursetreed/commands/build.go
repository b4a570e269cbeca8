package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgonzap30/coursetree/internal/hierarchy"
	"github.com/dgonzap30/coursetree/internal/jsonx"
	"github.com/dgonzap30/coursetree/internal/llmbackend"
)

func newBuildCmd() *cobra.Command {
	var inputPath, outputPath, corpusID string
	var parallelSummarize int

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a hierarchical retrieval index from a corpus of embedded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(loadedConfig)
			defer logger.Sync()

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			var docs []hierarchy.Document
			if err := jsonx.Unmarshal(raw, &docs); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			var backend hierarchy.SummarizationBackend
			if loadedConfig.Build.UseLLM && loadedConfig.Backend.Provider != "" {
				backend = llmbackend.New(llmbackend.Config{
					OpenAIKey:      loadedConfig.Backend.OpenAIKey,
					AnthropicKey:   loadedConfig.Backend.AnthropicKey,
					OllamaURL:      loadedConfig.Backend.OllamaURL,
					RequestTimeout: loadedConfig.Backend.RequestTimeout,
				}, logger)
			}

			buildCfg := loadedConfig.HierarchyBuildConfig()
			buildCfg.SummarizeWorkers = parallelSummarize
			builder := hierarchy.NewBuilder(buildCfg, backend)

			if corpusID == "" {
				corpusID = "cli-corpus"
			}

			tree, err := builder.BuildHierarchy(context.Background(), corpusID, docs, nil)
			if err != nil {
				return fmt.Errorf("build hierarchy: %w", err)
			}

			logger.Info("built hierarchy",
				zap.Int("leaves", tree.LeafCount),
				zap.Int("internals", tree.InternalCount),
				zap.Int("max_depth", tree.MaxDepth),
				zap.Int("roots", len(tree.RootIDs)),
			)

			out, err := jsonx.Marshal(tree)
			if err != nil {
				return fmt.Errorf("marshal tree: %w", err)
			}

			if outputPath == "" || outputPath == "-" {
				_, err = os.Stdout.Write(append(out, '\n'))
				return err
			}
			return os.WriteFile(outputPath, out, 0644)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON array of hierarchy.Document (required)")
	cmd.Flags().StringVar(&outputPath, "output", "-", "path to write the built tree JSON (default: stdout)")
	cmd.Flags().StringVar(&corpusID, "corpus-id", "", "identifier for the built tree's source corpus")
	cmd.Flags().IntVar(&parallelSummarize, "parallel-summarize", 0, "summarize each level's clusters with this many concurrent workers (0 or 1: sequential)")
	cmd.MarkFlagRequired("input")

	return cmd
}
