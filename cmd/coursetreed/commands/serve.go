package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgonzap30/coursetree/internal/api"
	"github.com/dgonzap30/coursetree/internal/hierarchy"
	"github.com/dgonzap30/coursetree/internal/llmbackend"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coursetree HTTP API (build and query endpoints, no persistence)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(loadedConfig)
			defer logger.Sync()

			var backend hierarchy.SummarizationBackend
			if loadedConfig.Build.UseLLM && loadedConfig.Backend.Provider != "" {
				backend = llmbackend.New(llmbackend.Config{
					OpenAIKey:      loadedConfig.Backend.OpenAIKey,
					AnthropicKey:   loadedConfig.Backend.AnthropicKey,
					OllamaURL:      loadedConfig.Backend.OllamaURL,
					RequestTimeout: loadedConfig.Backend.RequestTimeout,
				}, logger)
			}

			builder := hierarchy.NewBuilder(loadedConfig.HierarchyBuildConfig(), backend)
			server := api.NewServer(builder, loadedConfig.HierarchyBuildConfig(), loadedConfig.HierarchyTraverseConfig(), logger)

			addr := fmt.Sprintf("%s:%d", loadedConfig.Server.Host, loadedConfig.Server.Port)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("coursetreed serving", zap.String("addr", addr))
			return api.Serve(ctx, addr, server.Router(),
				loadedConfig.Server.ReadTimeout,
				loadedConfig.Server.WriteTimeout,
				loadedConfig.Server.ShutdownTimeout,
				logger,
			)
		},
	}
	return cmd
}
